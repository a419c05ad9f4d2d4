package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/live"
	"github.com/trezcool/darasa/core/session"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 10 * time.Second,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin policy is enforced at the proxy
	},
}

type liveAPI struct {
	auth   *auth
	rooms  *live.Registry
	logger core.Logger
}

func registerLiveAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	auth *auth,
	rooms *live.Registry,
	logger core.Logger,
) {
	api := liveAPI{
		auth:   auth,
		rooms:  rooms,
		logger: logger,
	}

	lg := g.Group("/live", jwt, auth.requireRoles(session.RoleStudent, session.RoleInstructor))
	lg.GET("/:id/ws", api.join)
}

// join upgrades the request and wires the caller into the class room:
// one goroutine drains the participant's outbox to the socket, the
// request goroutine pumps incoming frames into the room.
func (api *liveAPI) join(ctx echo.Context) error {
	claims, err := api.auth.getContextClaims(ctx)
	if err != nil {
		return err
	}
	classID := ctx.Param("id")

	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return errors.Wrap(err, "upgrading connection")
	}

	room := api.rooms.Room(classID)
	participant := live.NewParticipant(claims.Subject, claims.Name, session.Role(claims.Role))
	if err = room.Join(participant); err != nil {
		_ = conn.Close()
		return echo.NewHTTPError(http.StatusGone, err.Error())
	}

	go api.writePump(conn, participant)
	api.readPump(conn, room, participant)
	return nil
}

func (api *liveAPI) writePump(conn *websocket.Conn, participant *live.Participant) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-participant.Outbox:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(wsWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func (api *liveAPI) readPump(conn *websocket.Conn, room *live.Room, participant *live.Participant) {
	defer func() {
		_ = room.Leave(participant.ID)
		_ = conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var in ClassMessageRequest
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				api.logger.Warn(fmt.Sprintf("live class %s: read: %v", room.ClassID, err))
			}
			return
		}

		kind := in.Kind
		if kind != live.KindHandRaise {
			kind = live.KindChat
		}
		// only students raise hands
		if kind == live.KindHandRaise && participant.Role != session.RoleStudent {
			continue
		}

		if err := room.Send(live.Message{
			ClassID:    room.ClassID,
			SenderID:   participant.ID,
			SenderName: participant.Name,
			Role:       participant.Role,
			Kind:       kind,
			Text:       in.Text,
			SentAt:     time.Now().UTC(),
		}); err != nil {
			return
		}
	}
}

type ClassMessageRequest struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}
