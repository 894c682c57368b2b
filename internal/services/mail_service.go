package services

import (
	"log"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Email struct {
	ToName    string
	ToAddress string
	Subject   string
	Body      string
}

// EmailService delivers notification emails. Sends are fire-and-forget:
// implementations log failures instead of surfacing them to callers.
type EmailService interface {
	Send(emails ...Email)
}

type SendgridMailService struct {
	key         string
	fromName    string
	fromAddress string
}

func NewSendgridMailService(key, fromName, fromAddress string) *SendgridMailService {
	return &SendgridMailService{key: key, fromName: fromName, fromAddress: fromAddress}
}

func (s *SendgridMailService) Send(emails ...Email) {
	for _, email := range emails {
		email := email
		go func() {
			from := sgmail.NewEmail(s.fromName, s.fromAddress)
			to := sgmail.NewEmail(email.ToName, email.ToAddress)
			message := sgmail.NewSingleEmail(from, email.Subject, to, email.Body, email.Body)

			client := sendgrid.NewSendClient(s.key)
			response, err := client.Send(message)
			if err != nil {
				log.Printf("sendgrid send: %v", err)
				return
			}
			if response.StatusCode >= 300 {
				log.Printf("sendgrid send: status %d: %s", response.StatusCode, response.Body)
			}
		}()
	}
}

// ConsoleMailService logs instead of sending. Used in development and tests.
type ConsoleMailService struct{}

func NewConsoleMailService() *ConsoleMailService {
	return &ConsoleMailService{}
}

func (s *ConsoleMailService) Send(emails ...Email) {
	for _, email := range emails {
		log.Printf("mail to %s <%s>: %s: %s", email.ToName, email.ToAddress, email.Subject, email.Body)
	}
}
