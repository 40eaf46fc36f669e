package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"til-service/internal/mocks"
)

var _ Publisher = (*mocks.PublisherMock)(nil)

func TestEmitPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(publisher, "audit.til", "til-service", "test")

	var published AuditEnvelope
	publisher.On("Publish", mock.Anything, "audit.til", mock.AnythingOfType("telemetry.AuditEnvelope")).
		Run(func(args mock.Arguments) {
			published = args.Get(2).(AuditEnvelope)
		}).Return(nil).Once()

	userID := "42"
	emitter.Emit(context.Background(), "INFO", "chat request 4 accepted", "req-1", &userID)

	publisher.AssertExpectations(t)
	assert.Equal(t, 1, published.SchemaVersion)
	assert.Equal(t, "audit_log", published.EventType)
	assert.Equal(t, "til-service", published.Service)
	assert.Equal(t, "test", published.Environment)
	assert.Equal(t, "req-1", published.RequestID)
	require.NotNil(t, published.UserID)
	assert.Equal(t, "42", *published.UserID)
	assert.Equal(t, "INFO", published.Payload.Level)
	assert.Equal(t, "chat request 4 accepted", published.Payload.Text)
	assert.NotEmpty(t, published.OccurredAt)
}

func TestEmitPublishErrorIsSwallowed(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(publisher, "audit.til", "til-service", "test")

	publisher.On("Publish", mock.Anything, "audit.til", mock.AnythingOfType("telemetry.AuditEnvelope")).
		Return(assert.AnError).Once()

	emitter.Emit(context.Background(), "INFO", "text", "req-1", nil)
	publisher.AssertExpectations(t)
}

func TestEmitNilEmitterIsSafe(t *testing.T) {
	var emitter *AuditEmitter
	emitter.Emit(context.Background(), "INFO", "noop", "req-1", nil)
}
