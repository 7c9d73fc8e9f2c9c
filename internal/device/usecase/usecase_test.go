package usecase

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpd/internal/device/entity"
	"github.com/shandysiswandi/otpd/internal/pkg/clock"
	"github.com/shandysiswandi/otpd/internal/pkg/config"
	"github.com/shandysiswandi/otpd/internal/pkg/goerror"
	"github.com/shandysiswandi/otpd/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpd/internal/pkg/hash"
	"github.com/shandysiswandi/otpd/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpd/internal/pkg/instrument"
	"github.com/shandysiswandi/otpd/internal/pkg/jwt"
	"github.com/shandysiswandi/otpd/internal/pkg/keywrap"
	"github.com/shandysiswandi/otpd/internal/pkg/mail"
	"github.com/shandysiswandi/otpd/internal/pkg/validator"
)

const testUserID int64 = 42

// rfcKey and rfcTokens are the HMAC-SHA-1 test vectors from RFC 4226
// appendix D, truncated to six digits.
var (
	rfcKey    = []byte("12345678901234567890")
	rfcTokens = []string{
		"755224", "287082", "359152", "969429", "338314",
		"254676", "287922", "162583", "399871", "520489",
	}
)

const testConfigYAML = `
modules:
  device:
    throttle_factor: 1
    email_cooldown_seconds: 60
    email_token_ttl_minutes: 5
    totp_sync: true
    static_initial_tokens: 3
    issuer: otpd
`

// fakeRepo is an in-memory device store. WithDeviceLock takes a per-device
// mutex so concurrent verifications serialize the way row locks do, and fn
// works on a copy that only lands in the store through SaveState.
type fakeRepo struct {
	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	devices map[string]*entity.Device
	tokens  map[uint64][]entity.StaticToken

	failSave error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		locks:   make(map[string]*sync.Mutex),
		devices: make(map[string]*entity.Device),
		tokens:  make(map[uint64][]entity.StaticToken),
	}
}

func deviceKeyOf(dt entity.DeviceType, id uint64) string {
	return dt.String() + "/" + strconv.FormatUint(id, 10)
}

func copyDevice(dev *entity.Device) *entity.Device {
	cp := *dev
	if dev.HOTP != nil {
		st := *dev.HOTP
		cp.HOTP = &st
	}
	if dev.TOTP != nil {
		st := *dev.TOTP
		cp.TOTP = &st
	}
	if dev.SideChannel != nil {
		st := *dev.SideChannel
		cp.SideChannel = &st
	}
	return &cp
}

func (r *fakeRepo) put(dev *entity.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[deviceKeyOf(dev.Type, dev.ID)] = copyDevice(dev)
}

func (r *fakeRepo) get(dt entity.DeviceType, id uint64) *entity.Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	dev, ok := r.devices[deviceKeyOf(dt, id)]
	if !ok {
		return nil
	}
	return copyDevice(dev)
}

func (r *fakeRepo) GetDevice(_ context.Context, dt entity.DeviceType, id uint64) (*entity.Device, error) {
	dev := r.get(dt, id)
	if dev == nil {
		return nil, goerror.ErrNotFound
	}
	return dev, nil
}

func (r *fakeRepo) ListDevices(_ context.Context, userID int64, confirmedOnly bool) ([]entity.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]entity.Device, 0)
	for _, dev := range r.devices {
		if dev.UserID != userID {
			continue
		}
		if confirmedOnly && !dev.Confirmed {
			continue
		}
		out = append(out, *copyDevice(dev))
	}
	return out, nil
}

func (r *fakeRepo) GetStaticTokens(_ context.Context, deviceID uint64) ([]entity.StaticToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.StaticToken(nil), r.tokens[deviceID]...), nil
}

func (r *fakeRepo) CreateDevice(_ context.Context, dev *entity.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := deviceKeyOf(dev.Type, dev.ID)
	if _, ok := r.devices[key]; ok {
		return goerror.ErrConflict
	}
	r.devices[key] = copyDevice(dev)
	return nil
}

func (r *fakeRepo) NewStaticDevice(ctx context.Context, dev *entity.Device, tokens []entity.StaticToken) error {
	if err := r.CreateDevice(ctx, dev); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[dev.ID] = append(r.tokens[dev.ID], tokens...)
	return nil
}

func (r *fakeRepo) AddStaticTokens(_ context.Context, tokens []entity.StaticToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tok := range tokens {
		r.tokens[tok.DeviceID] = append(r.tokens[tok.DeviceID], tok)
	}
	return nil
}

func (r *fakeRepo) ConfirmDevice(_ context.Context, dt entity.DeviceType, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev, ok := r.devices[deviceKeyOf(dt, id)]
	if !ok {
		return goerror.ErrNotFound
	}
	dev.Confirmed = true
	return nil
}

func (r *fakeRepo) DeleteDevice(_ context.Context, dt entity.DeviceType, id uint64, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := deviceKeyOf(dt, id)
	dev, ok := r.devices[key]
	if !ok || dev.UserID != userID {
		return goerror.ErrNotFound
	}
	delete(r.devices, key)
	delete(r.tokens, id)
	return nil
}

func (r *fakeRepo) ResetThrottle(_ context.Context, dt entity.DeviceType, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev, ok := r.devices[deviceKeyOf(dt, id)]
	if !ok {
		return goerror.ErrNotFound
	}
	dev.FailureCount = 0
	dev.FailureTimestamp = time.Time{}
	if dev.SideChannel != nil {
		dev.SideChannel.LastGeneratedAt = time.Time{}
	}
	return nil
}

func (r *fakeRepo) lockFor(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	mu, ok := r.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		r.locks[key] = mu
	}
	return mu
}

func (r *fakeRepo) WithDeviceLock(
	ctx context.Context,
	dt entity.DeviceType,
	id uint64,
	fn func(ctx context.Context, dev *entity.Device, tx entity.DeviceTx) error,
) error {
	key := deviceKeyOf(dt, id)

	mu := r.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	dev := r.get(dt, id)
	if dev == nil {
		return goerror.ErrNotFound
	}

	tx := &fakeTx{repo: r}
	if err := fn(ctx, dev, tx); err != nil {
		return err
	}
	tx.commit()

	return nil
}

// fakeTx buffers writes and only applies them when the locked callback
// returns nil, mirroring transaction commit and rollback.
type fakeTx struct {
	repo  *fakeRepo
	saved *entity.Device
	used  []markedToken
}

type markedToken struct {
	id uint64
	at time.Time
}

func (t *fakeTx) SaveState(_ context.Context, dev *entity.Device) error {
	if t.repo.failSave != nil {
		return t.repo.failSave
	}
	t.saved = copyDevice(dev)
	return nil
}

func (t *fakeTx) StaticTokens(ctx context.Context, deviceID uint64) ([]entity.StaticToken, error) {
	return t.repo.GetStaticTokens(ctx, deviceID)
}

func (t *fakeTx) MarkStaticTokenUsed(_ context.Context, tokenID uint64, usedAt time.Time) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	for _, toks := range t.repo.tokens {
		for i := range toks {
			if toks[i].ID == tokenID {
				if !toks[i].UsedAt.IsZero() {
					return goerror.ErrNotFound
				}
				t.used = append(t.used, markedToken{id: tokenID, at: usedAt})
				return nil
			}
		}
	}
	return goerror.ErrNotFound
}

func (t *fakeTx) commit() {
	if t.saved != nil {
		t.repo.put(t.saved)
	}

	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	for _, m := range t.used {
		for devID, toks := range t.repo.tokens {
			for i := range toks {
				if toks[i].ID == m.id {
					t.repo.tokens[devID][i].UsedAt = m.at
				}
			}
		}
	}
}

type fakeMessaging struct {
	mu         sync.Mutex
	verified   []TokenVerifiedEvent
	challenges []ChallengeGeneratedEvent
}

func (m *fakeMessaging) PublishTokenVerified(_ context.Context, msg TokenVerifiedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verified = append(m.verified, msg)
	return nil
}

func (m *fakeMessaging) PublishChallengeGenerated(_ context.Context, msg ChallengeGeneratedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challenges = append(m.challenges, msg)
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) Close() error { return nil }

// fakeIdempotency tracks completed keys in memory.
type fakeIdempotency struct {
	mu   sync.Mutex
	done map[string]bool
}

func (f *fakeIdempotency) Acquire(context.Context, string, time.Duration) (idempotency.State, error) {
	return idempotency.StateNone, nil
}

func (f *fakeIdempotency) MarkCompleted(context.Context, string, time.Duration) error { return nil }

func (f *fakeIdempotency) MarkFailed(context.Context, string, time.Duration) error { return nil }

func (f *fakeIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	f.mu.Lock()
	if f.done == nil {
		f.done = make(map[string]bool)
	}
	if f.done[key] {
		f.mu.Unlock()
		return idempotency.ErrAlreadyCompleted
	}
	f.done[key] = true
	f.mu.Unlock()

	return fn(ctx)
}

type fakeNumberID struct{ n uint64 }

func (f *fakeNumberID) Generate() uint64 {
	f.n++
	return f.n
}

type fakeStringID struct{ n int }

func (f *fakeStringID) Generate() string {
	f.n++
	return "sid-" + strconv.Itoa(f.n)
}

// fakeClock is a movable clock shared by a test and the code under test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var _ clock.Clocker = (*fakeClock)(nil)

type fixture struct {
	uc     *Usecase
	repo   *fakeRepo
	msg    *fakeMessaging
	mailer *fakeMailer
	clock  *fakeClock
	sealer keywrap.Sealer
	hmac   hash.Hash
	gm     *goroutine.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfigYAML))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	val, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	repo := newFakeRepo()
	msg := &fakeMessaging{}
	mailer := &fakeMailer{}
	clk := &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	sealer := keywrap.NewAESGCM(keywrap.StaticKeyProvider{KeyBytes: make([]byte, 32)})
	hm := hash.NewHMACSHA256("test-hmac-secret")
	gm := goroutine.NewManager(8)

	uc := New(Dependency{
		RepoDB:        repo,
		RepoMessaging: msg,
		Idempotency:   &fakeIdempotency{},
		Validator:     val,
		Config:        cfg,
		HMAC:          hm,
		Argon2ID:      hash.NewArgon2id("test-pepper"),
		Sealer:        sealer,
		UID:           &fakeNumberID{n: 1000},
		UUID:          &fakeStringID{},
		Clock:         clk,
		Mailer:        mailer,
		Instrument:    instrument.NewNoop(),
		Goroutine:     gm,
	})

	return &fixture{
		uc:     uc,
		repo:   repo,
		msg:    msg,
		mailer: mailer,
		clock:  clk,
		sealer: sealer,
		hmac:   hm,
		gm:     gm,
	}
}

func authedCtx() context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: testUserID, Client: "login-service"})
}

func (f *fixture) seal(t *testing.T, deviceID uint64, key []byte) []byte {
	t.Helper()

	sealed, err := f.sealer.Seal(key, keywrap.Scope{DeviceID: deviceID, Purpose: keywrap.PurposeDeviceKey})
	if err != nil {
		t.Fatalf("seal key: %v", err)
	}
	return sealed
}

func (f *fixture) seedHOTP(t *testing.T, id uint64, confirmed bool) *entity.Device {
	t.Helper()

	dev := &entity.Device{
		ID:            id,
		UserID:        testUserID,
		Name:          "phone",
		Type:          entity.DeviceTypeHOTP,
		Confirmed:     confirmed,
		KeyCiphertext: f.seal(t, id, rfcKey),
		HOTP:          &entity.HOTPState{Digits: 6, Tolerance: entity.DefaultHOTPTolerance},
		CreatedAt:     f.clock.Now(),
	}
	f.repo.put(dev)
	return dev
}

func (f *fixture) seedTOTP(t *testing.T, id uint64) *entity.Device {
	t.Helper()

	dev := &entity.Device{
		ID:            id,
		UserID:        testUserID,
		Name:          "authenticator",
		Type:          entity.DeviceTypeTOTP,
		Confirmed:     true,
		KeyCiphertext: f.seal(t, id, rfcKey),
		TOTP: &entity.TOTPState{
			Step:      30,
			Digits:    6,
			Tolerance: entity.DefaultTOTPTolerance,
			LastT:     -1,
		},
		CreatedAt: f.clock.Now(),
	}
	f.repo.put(dev)
	return dev
}

func (f *fixture) seedEmail(t *testing.T, id uint64) *entity.Device {
	t.Helper()

	dev := &entity.Device{
		ID:          id,
		UserID:      testUserID,
		Name:        "inbox",
		Type:        entity.DeviceTypeEmail,
		Confirmed:   true,
		Email:       "user@example.com",
		SideChannel: &entity.SideChannelState{},
		CreatedAt:   f.clock.Now(),
	}
	f.repo.put(dev)
	return dev
}

func assertErrorCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error with code %v, got nil", code)
	}

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *goerror.Error, got %T: %v", err, err)
	}
	if gerr.Code() != code {
		t.Fatalf("expected code %v, got %v (%v)", code, gerr.Code(), err)
	}
}
