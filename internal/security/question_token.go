package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"certifyeasy/internal/models"
)

// ErrInvalidQuestionToken is returned for tokens that fail verification
var ErrInvalidQuestionToken = errors.New("invalid question token")

type questionClaims struct {
	SessionID  string `json:"sid"`
	UserID     int64  `json:"uid"`
	Exam       string `json:"exam"`
	Part       string `json:"part"`
	Subject    string `json:"subject"`
	Question   string `json:"q"`
	Answer     string `json:"ans"`
	RetryCount int    `json:"retry"`
	jwt.RegisteredClaims
}

// QuestionSigner issues HS256 tokens binding a served question to its
// practice session, correct answer and retry count.
type QuestionSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewQuestionSigner creates a signer whose tokens expire after ttl
func NewQuestionSigner(secret string, ttl time.Duration) *QuestionSigner {
	return &QuestionSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token for inst
func (s *QuestionSigner) Sign(inst models.QuestionInstance) (string, error) {
	now := s.now()
	claims := questionClaims{
		SessionID:  inst.SessionID,
		UserID:     inst.UserID,
		Exam:       inst.Exam,
		Part:       inst.Part,
		Subject:    inst.Subject,
		Question:   inst.Question,
		Answer:     inst.Answer,
		RetryCount: inst.RetryCount,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the signature and expiry of token and returns what it binds
func (s *QuestionSigner) Verify(token string) (models.QuestionInstance, error) {
	claims := &questionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return models.QuestionInstance{}, fmt.Errorf("%w: %w", ErrInvalidQuestionToken, err)
	}

	return models.QuestionInstance{
		SessionID:  claims.SessionID,
		UserID:     claims.UserID,
		Exam:       claims.Exam,
		Part:       claims.Part,
		Subject:    claims.Subject,
		Question:   claims.Question,
		Answer:     claims.Answer,
		RetryCount: claims.RetryCount,
	}, nil
}
