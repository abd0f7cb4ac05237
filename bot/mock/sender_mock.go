package mock_bot

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// MockSender records everything the bot sends.
type MockSender struct {
	SentMessages []tgbotapi.Chattable
	Requests     []tgbotapi.Chattable
	nextID       int
}

func (m *MockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.SentMessages = append(m.SentMessages, c)
	m.nextID++
	return tgbotapi.Message{MessageID: m.nextID, Chat: &tgbotapi.Chat{ID: 123}}, nil
}

func (m *MockSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.Requests = append(m.Requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// Last returns the most recently sent message.
func (m *MockSender) Last() tgbotapi.Chattable {
	if len(m.SentMessages) == 0 {
		return nil
	}
	return m.SentMessages[len(m.SentMessages)-1]
}

func ClearSentMessages(s *MockSender) {
	s.SentMessages = nil
	s.Requests = nil
}
