package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/crypto"
	"github.com/noah-isme/class-control-api/pkg/docstore"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
)

const (
	qrImageSize        = 256
	qrPollInterval     = time.Second
	qrSessionIDPrefix  = "qr_"
	qrSessionRandChars = 9
)

type qrSessionRepository interface {
	Create(ctx context.Context, id string, fields map[string]interface{}) error
	FindByID(ctx context.Context, id string) (*models.QRSession, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context, id string, onChange func(*models.QRSession), onError func(error)) (docstore.Unsubscribe, error)
}

type sessionExchanger interface {
	Exchange(ctx context.Context, payload models.QRHandoffPayload) (*models.LoginResponse, error)
}

// QRAuthConfig tunes session lifetimes.
type QRAuthConfig struct {
	SessionTTL   time.Duration
	CleanupDelay time.Duration
	RetryDelay   time.Duration
}

// QRAuthService hands an authenticated session to a new device through a
// short-lived QR session document.
type QRAuthService struct {
	repo   qrSessionRepository
	auth   sessionExchanger
	cipher *crypto.Cipher
	config QRAuthConfig
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	cleanup map[string]*time.Timer
}

// NewQRAuthService constructs a QRAuthService. A nil cipher disables the flow.
func NewQRAuthService(repo qrSessionRepository, auth sessionExchanger, cipher *crypto.Cipher, config QRAuthConfig, logger *zap.Logger) *QRAuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = 10 * time.Minute
	}
	if config.CleanupDelay <= 0 {
		config.CleanupDelay = 10 * time.Second
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 2 * time.Second
	}
	return &QRAuthService{
		repo:    repo,
		auth:    auth,
		cipher:  cipher,
		config:  config,
		logger:  logger,
		now:     time.Now,
		cleanup: make(map[string]*time.Timer),
	}
}

// CreateSession writes a waiting session. A failed write is retried once.
func (s *QRAuthService) CreateSession(ctx context.Context) (*models.QRSession, error) {
	if s.cipher == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "qr login requires an encryption key")
	}
	created := s.now().UTC()
	session := &models.QRSession{
		ID:        newQRSessionID(created),
		Status:    models.QRWaiting,
		CreatedAt: created,
		ExpiresAt: created.Add(s.config.SessionTTL),
	}
	fields := map[string]interface{}{
		"status":    string(session.Status),
		"createdAt": timestamp(session.CreatedAt),
		"expiresAt": timestamp(session.ExpiresAt),
	}
	err := s.repo.Create(ctx, session.ID, fields)
	if err != nil {
		s.logger.Warn("qr session create failed, retrying", zap.String("session_id", session.ID), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.config.RetryDelay):
		}
		err = s.repo.Create(ctx, session.ID, fields)
	}
	if err != nil {
		return nil, internalError(err, "failed to create qr session")
	}
	return session, nil
}

// CompleteSession stores the encrypted handoff payload on a waiting session.
func (s *QRAuthService) CompleteSession(ctx context.Context, id string, payload models.QRHandoffPayload) error {
	if s.cipher == nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "qr login requires an encryption key")
	}
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "qr session", "failed to load qr session")
	}
	now := s.now()
	if session.Status == models.QRExpired || session.Expired(now) {
		return appErrors.Clone(appErrors.ErrSessionExpired, "qr session expired")
	}
	if session.Status != models.QRWaiting {
		return appErrors.Clone(appErrors.ErrConflict, "qr session already used")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return internalError(err, "failed to encode qr payload")
	}
	encrypted, err := s.cipher.Encrypt(string(raw))
	if err != nil {
		return internalError(err, "failed to encrypt qr payload")
	}
	if err := s.repo.Update(ctx, id, map[string]interface{}{
		"status":        string(models.QRCompleted),
		"encryptedData": encrypted,
		"completedAt":   timestamp(now),
	}); err != nil {
		return storeError(err, "qr session", "failed to complete qr session")
	}
	return nil
}

// SessionQR renders the PNG the new device displays.
func (s *QRAuthService) SessionQR(ctx context.Context, id string) ([]byte, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "qr session", "failed to load qr session")
	}
	if session.Status != models.QRWaiting || session.Expired(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrSessionExpired, "qr session is no longer waiting")
	}
	png, err := qrcode.Encode(session.ID, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, internalError(err, "failed to render qr code")
	}
	return png, nil
}

// Watch streams session events until the session completes, expires or ctx
// is cancelled. On completion the payload is exchanged for a new login and
// the session is deleted after the cleanup delay. On expiry a replacement
// session is created and sent with the expired event.
func (s *QRAuthService) Watch(ctx context.Context, id string, emit func(models.QREvent)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes := make(chan *models.QRSession, 4)
	errs := make(chan error, 1)
	deliver := func(session *models.QRSession) {
		select {
		case changes <- session:
		case <-ctx.Done():
		}
	}
	unsubscribe, err := s.repo.Watch(ctx, id, deliver, func(err error) {
		select {
		case errs <- err:
		default:
		}
	})
	switch {
	case errors.Is(err, docstore.ErrSubscribeUnsupported):
		go s.poll(ctx, id, deliver, errs)
	case err != nil:
		return internalError(err, "failed to watch qr session")
	default:
		defer unsubscribe()
	}

	var expiry *time.Timer
	var expiryC <-chan time.Time
	defer func() {
		if expiry != nil {
			expiry.Stop()
		}
	}()
	announced := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			emit(models.QREvent{Type: models.QREventError, SessionID: id, Message: "session feed interrupted"})
			return internalError(err, "qr session feed failed")
		case <-expiryC:
			return s.expire(ctx, id, emit)
		case session := <-changes:
			if session == nil {
				emit(models.QREvent{Type: models.QREventError, SessionID: id, Message: "session not found"})
				return appErrors.Clone(appErrors.ErrNotFound, "qr session not found")
			}
			switch {
			case session.Status == models.QRCompleted:
				return s.complete(ctx, session, emit)
			case session.Status == models.QRExpired || session.Expired(s.now()):
				return s.expire(ctx, id, emit)
			}
			if expiry == nil && !session.ExpiresAt.IsZero() {
				expiry = time.NewTimer(session.ExpiresAt.Sub(s.now()))
				expiryC = expiry.C
			}
			if !announced {
				announced = true
				emit(models.QREvent{Type: models.QREventWaiting, SessionID: id})
			}
		}
	}
}

func (s *QRAuthService) complete(ctx context.Context, session *models.QRSession, emit func(models.QREvent)) error {
	defer s.scheduleDelete(session.ID)
	payload, err := s.decodePayload(session.EncryptedData)
	if err != nil {
		emit(models.QREvent{Type: models.QREventError, SessionID: session.ID, Message: "invalid session payload"})
		return err
	}
	login, err := s.auth.Exchange(ctx, *payload)
	if err != nil {
		emit(models.QREvent{Type: models.QREventError, SessionID: session.ID, Message: appErrors.FromError(err).Message})
		return err
	}
	s.logger.Info("qr session completed", zap.String("session_id", session.ID))
	emit(models.QREvent{Type: models.QREventCompleted, SessionID: session.ID, Login: login})
	return nil
}

func (s *QRAuthService) expire(ctx context.Context, id string, emit func(models.QREvent)) error {
	if err := s.repo.Update(ctx, id, map[string]interface{}{"status": string(models.QRExpired)}); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		s.logger.Warn("qr session expiry not recorded", zap.String("session_id", id), zap.Error(err))
	}
	s.scheduleDelete(id)
	next, err := s.CreateSession(ctx)
	if err != nil {
		emit(models.QREvent{Type: models.QREventExpired, SessionID: id, Message: "session expired"})
		return err
	}
	emit(models.QREvent{Type: models.QREventExpired, SessionID: id, NewSession: next})
	return nil
}

func (s *QRAuthService) decodePayload(encrypted string) (*models.QRHandoffPayload, error) {
	if s.cipher == nil || encrypted == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "qr session has no payload")
	}
	plain, err := s.cipher.Decrypt(encrypted)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "qr payload cannot be decrypted")
	}
	var payload models.QRHandoffPayload
	if err := json.Unmarshal([]byte(plain), &payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "qr payload is malformed")
	}
	return &payload, nil
}

// scheduleDelete removes the session document after the cleanup delay.
func (s *QRAuthService) scheduleDelete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cleanup[id]; ok {
		return
	}
	s.cleanup[id] = time.AfterFunc(s.config.CleanupDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.repo.Delete(ctx, id); err != nil {
			s.logger.Warn("qr session cleanup failed", zap.String("session_id", id), zap.Error(err))
		}
		s.mu.Lock()
		delete(s.cleanup, id)
		s.mu.Unlock()
	})
}

// Shutdown runs pending session deletes immediately.
func (s *QRAuthService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	pending := make([]string, 0, len(s.cleanup))
	for id, timer := range s.cleanup {
		if timer.Stop() {
			pending = append(pending, id)
		}
	}
	s.cleanup = make(map[string]*time.Timer)
	s.mu.Unlock()
	for _, id := range pending {
		if err := s.repo.Delete(ctx, id); err != nil {
			s.logger.Warn("qr session cleanup failed", zap.String("session_id", id), zap.Error(err))
		}
	}
}

func (s *QRAuthService) poll(ctx context.Context, id string, deliver func(*models.QRSession), errs chan<- error) {
	ticker := time.NewTicker(qrPollInterval)
	defer ticker.Stop()
	for {
		session, err := s.repo.FindByID(ctx, id)
		switch {
		case errors.Is(err, docstore.ErrNotFound):
			deliver(nil)
			return
		case err != nil:
			if ctx.Err() == nil {
				select {
				case errs <- err:
				default:
				}
			}
			return
		default:
			deliver(session)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func newQRSessionID(at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:qrSessionRandChars]
	return fmt.Sprintf("%s%d_%s", qrSessionIDPrefix, at.UnixMilli(), suffix)
}
