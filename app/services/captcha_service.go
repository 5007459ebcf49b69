package services

import (
	"context"
	"image"
	"image/color"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wenlng/go-captcha/v2/rotate"
)

// CaptchaService issues rotate-captcha challenges shown after repeated
// failed logins. The frontend renders the two images and submits the
// rotation angle the user applied together with the challenge ID.
type CaptchaService interface {
	GenerateRotate(ctx context.Context) (*RotateChallenge, error)
	VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool
}

type RotateChallenge struct {
	ID                string
	MasterImageBase64 string
	ThumbImageBase64  string
}

type captchaServiceImpl struct {
	rotator rotate.Captcha
	ttl     time.Duration
	padding int // tolerance in degrees for angle validation

	mu         sync.Mutex
	challenges map[string]rotateChallengeState
}

type rotateChallengeState struct {
	angle     int
	expiresAt time.Time
}

// NewCaptchaServiceRotate constructs a CaptchaService using rotate mode.
// ttl bounds how long a challenge stays answerable, padding is the accepted
// angle difference in degrees, imgSizePx the square image size.
func NewCaptchaServiceRotate(ttl time.Duration, padding, imgSizePx int) (CaptchaService, error) {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if imgSizePx <= 0 {
		imgSizePx = 220
	}

	builder := rotate.NewBuilder(
		rotate.WithImageSquareSize(imgSizePx),
	)
	builder.SetResources(
		rotate.WithImages(rotateBackgrounds(4, imgSizePx)),
	)

	svc := &captchaServiceImpl{
		rotator:    builder.Make(),
		ttl:        ttl,
		padding:    padding,
		challenges: make(map[string]rotateChallengeState),
	}
	go svc.expireLoop()
	return svc, nil
}

func (s *captchaServiceImpl) GenerateRotate(ctx context.Context) (*RotateChallenge, error) {
	captData, err := s.rotator.Generate()
	if err != nil {
		return nil, err
	}

	block := captData.GetData()
	if block == nil {
		return nil, err
	}

	masterB64, err := captData.GetMasterImage().ToBase64()
	if err != nil {
		return nil, err
	}
	thumbB64, err := captData.GetThumbImage().ToBase64()
	if err != nil {
		return nil, err
	}

	challengeID := uuid.New().String()
	s.mu.Lock()
	s.challenges[challengeID] = rotateChallengeState{
		angle:     block.Angle,
		expiresAt: time.Now().Add(s.ttl),
	}
	s.mu.Unlock()

	return &RotateChallenge{
		ID:                challengeID,
		MasterImageBase64: masterB64,
		ThumbImageBase64:  thumbB64,
	}, nil
}

// VerifyRotate validates the submitted angle. A challenge is single-use: it
// is consumed whether the answer is right or wrong.
func (s *captchaServiceImpl) VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool {
	s.mu.Lock()
	state, ok := s.challenges[challengeID]
	delete(s.challenges, challengeID)
	s.mu.Unlock()

	if !ok || time.Now().After(state.expiresAt) {
		return false
	}

	return rotate.Validate(int(math.Round(userAngle)), state.angle, s.padding)
}

func (s *captchaServiceImpl) expireLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		s.mu.Lock()
		for id, state := range s.challenges {
			if now.After(state.expiresAt) {
				delete(s.challenges, id)
			}
		}
		s.mu.Unlock()
	}
}

// rotateBackgrounds generates simple procedural background images so the
// service has no asset files to ship
func rotateBackgrounds(n, size int) []image.Image {
	if n <= 0 {
		n = 1
	}
	imgs := make([]image.Image, 0, n)
	for i := 0; i < n; i++ {
		imgs = append(imgs, stripedNoiseImage(size, size, i))
	}
	return imgs
}

func stripedNoiseImage(w, h, seed int) image.Image {
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	rng := rand.New(rand.NewSource(int64(seed) + 7919))

	stripe := 12 + rng.Intn(10)
	baseR := uint8(60 + rng.Intn(120))
	baseG := uint8(60 + rng.Intn(120))
	baseB := uint8(60 + rng.Intn(120))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			shade := uint8(0)
			if ((x+y)/stripe)%2 == 0 {
				shade = 45
			}
			noise := uint8(rng.Intn(25))
			rgba.Set(x, y, color.RGBA{
				R: baseR + shade + noise,
				G: baseG + shade,
				B: baseB + noise,
				A: 255,
			})
		}
	}
	return rgba
}
