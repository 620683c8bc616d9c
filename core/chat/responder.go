package chat

import (
	"regexp"
	"strings"
)

// topics are checked in order; the first one with a matching keyword answers.
var topics = []struct {
	keywords []string
	interest string // lead interest key the topic hints at
	answer   string
}{
	{
		keywords: []string{"computer science", "programming"},
		interest: "computer-science",
		answer: "Our Computer Science programmes cover software development, algorithms and systems design, " +
			"with on-campus and online options. Would you like details on the curriculum or the admission requirements?",
	},
	{
		keywords: []string{"data science", "analytics"},
		interest: "data-science",
		answer: "Our Data Science and Analytics programmes teach statistics, machine learning and data visualisation " +
			"through real-world projects. Shall I send you the programme brochure?",
	},
	{
		keywords: []string{"cybersecurity", "security"},
		interest: "cybersecurity",
		answer: "Our Cybersecurity programme covers network security, ethical hacking and digital forensics, " +
			"and prepares you for industry certifications. Would you like to hear about career outcomes?",
	},
	{
		keywords: []string{"cost", "price", "tuition"},
		answer: "Tuition depends on the programme and the study mode. Scholarships and flexible payment plans are available. " +
			"Leave your email and an advisor will send you a detailed breakdown.",
	},
	{
		keywords: []string{"hello", "hi"},
		answer:   "Hello! I can help you find the right programme. Which field are you interested in?",
	},
}

const fallbackAnswer = "Thanks for your message! Which field of study are you interested in? " +
	"For example computer science, data science or cybersecurity."

var emailRegex = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// Respond picks the canned answer for msg. interest is the lead interest key
// the message hints at, if any.
func Respond(msg string) (answer, interest string) {
	lmsg := strings.ToLower(msg)
	for _, topic := range topics {
		for _, kw := range topic.keywords {
			if strings.Contains(lmsg, kw) {
				return topic.answer, topic.interest
			}
		}
	}
	return fallbackAnswer, ""
}

func findEmail(msg string) string {
	return strings.ToLower(emailRegex.FindString(msg))
}
