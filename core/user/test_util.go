package user

import (
	"github.com/trezcool/darasa/core"
)

// NewServiceMock returns a ServiceInterface suitable for tests: same
// behavior as the real service, paired with a synchronous EmailService mock
// so sent messages can be asserted on immediately.
func NewServiceMock(repo Repository, mailSvc core.EmailService, conf *core.Config) ServiceInterface {
	return NewService(repo, mailSvc, conf)
}
