package chatbot

import "strings"

// Bot is the scripted course-advisor: keyword rules mapped to canned
// replies, evaluated in order. Pure string matching, fully deterministic.
type Bot struct {
	rules        []rule
	defaultReply string
}

type rule struct {
	keywords []string
	reply    string
}

// SuggestedQuestions are offered to users as conversation starters.
var SuggestedQuestions = []string{
	"What course should I start for web development?",
	"Explain Machine Learning in simple words",
	"Give me a roadmap to become a data analyst",
	"Which course is best for beginners?",
}

func New() *Bot {
	return &Bot{
		rules: []rule{
			{
				keywords: []string{"web development", "web dev"},
				reply: `For web development, I recommend starting with our "React & Laravel Full Stack Development" course. ` +
					`It covers both frontend (React) and backend (Laravel) technologies. You'll learn HTML, CSS, JavaScript, ` +
					`React hooks, and Laravel framework. This course is perfect for building modern web applications!`,
			},
			{
				keywords: []string{"machine learning", "ml"},
				reply: `Machine Learning is a type of artificial intelligence where computers learn from data without being ` +
					`explicitly programmed. Think of it like teaching a child - you show examples, and they learn patterns. ` +
					`For example, showing a computer thousands of cat pictures helps it recognize cats in new images. ` +
					`Our "Machine Learning Fundamentals" course breaks this down step by step!`,
			},
			{
				keywords: []string{"data analyst", "roadmap"},
				reply: "Here's your Data Analyst roadmap:\n\n1. Learn Excel & Statistics (2-3 months)\n2. Master SQL for databases (1 month)\n" +
					"3. Learn Python (NumPy, Pandas) (2 months)\n4. Data Visualization (Tableau/PowerBI) (1 month)\n5. Practice with real datasets\n\n" +
					`Our "Data Science with Python" course covers steps 3-4 comprehensively!`,
			},
			{
				keywords: []string{"beginner", "start"},
				reply: "For absolute beginners, I recommend:\n\n1. \"Introduction to Programming with Python\" - Learn coding basics\n" +
					"2. \"Web Development Fundamentals\" - Build your first website\n3. \"UI/UX Design Basics\" - Understand design principles\n\n" +
					"All these courses include hands-on projects and certificates!",
			},
			{
				keywords: []string{"price", "cost"},
				reply: "Our courses range from ৳3,500 to ৳8,500. We offer:\n\n- Monthly installment plans\n- Student discounts (20% off)\n" +
					"- Group enrollment discounts\n- Free trial for first module\n\nContact us for custom pricing!",
			},
			{
				keywords: []string{"certificate", "certification"},
				reply: "Yes! All our courses provide industry-recognized certificates upon completion. You'll receive:\n\n" +
					"✓ Digital certificate (PDF)\n✓ LinkedIn shareable badge\n✓ Verified credential\n✓ Lifetime access to course materials\n\n" +
					"Certificates are issued within 48 hours of course completion!",
			},
		},
		defaultReply: "That's a great question! Our AI-powered courses cover Web Development, Data Science, Machine Learning, " +
			"UI/UX Design, and more. Would you like me to recommend a specific course based on your goals? " +
			"You can also browse our course catalog or contact our support team for personalized guidance.",
	}
}

// Reply returns the canned response for the first rule whose keyword
// appears in the message, or the default response.
func (b *Bot) Reply(message string) string {
	msg := strings.ToLower(message)
	for _, r := range b.rules {
		for _, kw := range r.keywords {
			if strings.Contains(msg, kw) {
				return r.reply
			}
		}
	}
	return b.defaultReply
}
