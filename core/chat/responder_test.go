package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRespond(t *testing.T) {
	tests := []struct {
		msg          string
		wantTopic    int // index in topics, -1 for the fallback
		wantInterest string
	}{
		{msg: "Tell me about Computer Science", wantTopic: 0, wantInterest: "computer-science"},
		{msg: "I like programming", wantTopic: 0, wantInterest: "computer-science"},
		{msg: "DATA SCIENCE please", wantTopic: 1, wantInterest: "data-science"},
		{msg: "business analytics?", wantTopic: 1, wantInterest: "data-science"},
		{msg: "network security", wantTopic: 2, wantInterest: "cybersecurity"},
		{msg: "How much is tuition?", wantTopic: 3},
		{msg: "What's the price", wantTopic: 3},
		{msg: "Hello there", wantTopic: 4},
		{msg: "hi", wantTopic: 4},
		{msg: "programming costs", wantTopic: 0, wantInterest: "computer-science"}, // first topic wins
		{msg: "security and data science", wantTopic: 1, wantInterest: "data-science"},
		{msg: "What about art?", wantTopic: -1},
		{msg: "", wantTopic: -1},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			answer, interest := Respond(tt.msg)
			if tt.wantTopic < 0 {
				assert.Equal(t, fallbackAnswer, answer)
			} else {
				assert.Equal(t, topics[tt.wantTopic].answer, answer)
			}
			assert.Equal(t, tt.wantInterest, interest)
		})
	}
}

func Test_findEmail(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{msg: "reach me at Ann.Lee+edu@Example.COM thanks", want: "ann.lee+edu@example.com"},
		{msg: "first@x.io or second@y.io", want: "first@x.io"},
		{msg: "no email here @ all", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, findEmail(tt.msg))
		})
	}
}
