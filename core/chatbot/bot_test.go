package chatbot

import (
	"strings"
	"testing"
)

func TestBot_Reply(t *testing.T) {
	bot := New()

	tests := []struct {
		name    string
		message string
		want    string // substring of the reply
	}{
		{name: "web development", message: "What course should I start for web development?", want: "React & Laravel"},
		{name: "web dev shorthand", message: "any web dev tips?", want: "React & Laravel"},
		{name: "machine learning", message: "Explain MACHINE LEARNING in simple words", want: "Machine Learning Fundamentals"},
		{name: "roadmap", message: "Give me a roadmap to become a data analyst", want: "Data Analyst roadmap"},
		{name: "beginner", message: "Which course is best for beginners?", want: "absolute beginners"},
		{name: "pricing", message: "how much does a course cost?", want: "courses range"},
		{name: "certificate", message: "do I get a certificate?", want: "industry-recognized certificates"},
		{name: "rule order", message: "what is the price of the web development course?", want: "React & Laravel"},
		{name: "no match", message: "lol", want: "That's a great question!"},
		{name: "empty message", message: "", want: "That's a great question!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bot.Reply(tt.message)
			if got == "" {
				t.Fatal("Reply() returned an empty reply")
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("Reply(%q) = %q; want it to contain %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestSuggestedQuestions(t *testing.T) {
	if len(SuggestedQuestions) == 0 {
		t.Fatal("no suggested questions")
	}
	// every suggestion hits a rule, never the default reply
	bot := New()
	for _, q := range SuggestedQuestions {
		if reply := bot.Reply(q); reply == bot.defaultReply {
			t.Errorf("Reply(%q) fell through to the default reply", q)
		}
	}
}
