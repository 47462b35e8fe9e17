package auth

import (
	"context"

	"go.uber.org/zap"

	"github.com/Tanmay692004/techwithtim-tutorial/internal/domain/model"
)

// VerifySender delivers verification tokens to users.
type VerifySender interface {
	SendVerifyToken(ctx context.Context, user model.User, token string) error
}

type LogVerifySender struct {
	logger *zap.Logger
}

func NewLogVerifySender(logger *zap.Logger) *LogVerifySender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogVerifySender{logger: logger}
}

func (s *LogVerifySender) SendVerifyToken(_ context.Context, user model.User, token string) error {
	s.logger.Info("verification requested",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
		zap.String("token", token),
	)
	return nil
}
