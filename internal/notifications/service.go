package notifications

import (
	"context"
	"fmt"
	"log"
	"time"

	"tourly/internal/bookings"
	"tourly/internal/registrations"
	"tourly/internal/shared/config"
)

// Service fans booking and registration lifecycle events out to Kafka and
// runs the consumer side that turns them into emails. It implements
// bookings.Notifier and registrations.Notifier; publishing happens off the
// request path and never fails the caller.
type Service struct {
	producer NotificationProducer
	consumer NotificationConsumer
	cfg      *config.Config
}

func NewService(cfg *config.Config) (*Service, error) {
	producerConfig := DefaultKafkaProducerConfig()
	producerConfig.Brokers = cfg.Kafka.Brokers
	producerConfig.NotificationTopic = cfg.Kafka.NotificationTopic
	producerConfig.DeadLetterTopic = cfg.Kafka.DeadLetterTopic

	producer, err := NewKafkaNotificationProducer(producerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification producer: %w", err)
	}

	svc := &Service{
		producer: producer,
		cfg:      cfg,
	}

	// The consumer needs a working SMTP setup; without one the service
	// still publishes so another deployment can consume the topic.
	emailService, err := NewSMTPEmailService(NewSMTPConfig(cfg))
	if err != nil {
		log.Printf("📧 Email sending disabled: %v", err)
		return svc, nil
	}

	consumerConfig := DefaultConsumerConfig()
	consumerConfig.Brokers = cfg.Kafka.Brokers
	consumerConfig.Topics = []string{cfg.Kafka.NotificationTopic}
	consumerConfig.GroupID = cfg.Kafka.ConsumerGroup

	consumer, err := NewKafkaNotificationConsumer(consumerConfig, emailService)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification consumer: %w", err)
	}
	svc.consumer = consumer

	return svc, nil
}

// Start launches the consumer workers, if email delivery is configured.
func (s *Service) Start(ctx context.Context, numWorkers int) error {
	if s.consumer == nil {
		return nil
	}
	return s.consumer.StartConsumers(ctx, numWorkers)
}

func (s *Service) Stop() error {
	var firstErr error
	if s.consumer != nil {
		if err := s.consumer.Stop(); err != nil {
			firstErr = err
		}
	}
	if err := s.producer.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (s *Service) HealthCheck(ctx context.Context) error {
	return s.producer.HealthCheck(ctx)
}

// BookingCreated implements bookings.Notifier
func (s *Service) BookingCreated(ctx context.Context, booking *bookings.Booking) {
	s.publishAsync(s.buildBookingNotification(booking, NotificationTypeBookingCreated,
		"Your booking "+booking.BookingReference+" has been received"))
}

// BookingConfirmed implements bookings.Notifier
func (s *Service) BookingConfirmed(ctx context.Context, booking *bookings.Booking) {
	s.publishAsync(s.buildBookingNotification(booking, NotificationTypeBookingConfirmed,
		"Your booking "+booking.BookingReference+" is confirmed"))
}

// BookingCancelled implements bookings.Notifier
func (s *Service) BookingCancelled(ctx context.Context, booking *bookings.Booking) {
	notification := s.buildBookingNotification(booking, NotificationTypeBookingCancelled,
		"Your booking "+booking.BookingReference+" has been cancelled")
	if booking.RefundAmount != nil {
		notification.TemplateData["refund_amount"] = *booking.RefundAmount
	}
	s.publishAsync(notification)
}

// RegistrationApproved implements registrations.Notifier
func (s *Service) RegistrationApproved(ctx context.Context, registration *registrations.Registration, tour *registrations.CustomTour) {
	s.publishAsync(NewNotificationBuilder().
		WithType(NotificationTypeRegistrationApproved).
		WithRecipient(registration.TouristID, registration.ContactEmail, registration.ContactEmail).
		WithSubject("You're in! Your registration for "+tour.Title+" was approved").
		WithRegistrationContext(registration.ID).
		WithTemplateData(map[string]interface{}{
			"recipient_name":   registration.ContactEmail,
			"tour_title":       tour.Title,
			"start_date":       tour.StartDate.Format("2006-01-02"),
			"end_date":         tour.EndDate.Format("2006-01-02"),
			"price_per_person": tour.PricePerPerson,
			"currency":         tour.Currency,
		}).
		Build())
}

func (s *Service) buildBookingNotification(booking *bookings.Booking, notType NotificationType, subject string) *EmailNotification {
	return NewNotificationBuilder().
		WithType(notType).
		WithRecipient(booking.TouristID, booking.ContactEmail, booking.ContactEmail).
		WithSubject(subject).
		WithBookingContext(booking.ID).
		WithTemplateData(map[string]interface{}{
			"recipient_name":    booking.ContactEmail,
			"booking_reference": booking.BookingReference,
			"tour_date":         booking.TourDate.Format("2006-01-02"),
			"participants":      booking.NumberOfParticipants,
			"total_amount":      booking.TotalAmount,
			"currency":          booking.Currency,
		}).
		Build()
}

func (s *Service) publishAsync(notification *EmailNotification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.producer.PublishNotification(ctx, notification); err != nil {
			log.Printf("📤 Failed to publish %s notification: %v", notification.Type, err)
		}
	}()
}
