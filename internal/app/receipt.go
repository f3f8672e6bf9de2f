package app

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/form3tech-oss/jwt-go"

	"tarok/internal/domain"
)

var (
	ErrReceiptConfig   = errors.New("receipt service is not configured")
	ErrReceiptInvalid  = errors.New("receipt is invalid")
	ErrReceiptMismatch = errors.New("receipt does not match the seeded deal")
)

// Receipt is the verified content of a signed deal receipt.
type Receipt struct {
	MatchID    string
	Seed       int64
	NumPlayers int
	Talon      []int
	IssuedAt   time.Time
}

// ReceiptService signs deals so players can later check that the talon they
// saw is the one their seed produces.
type ReceiptService struct {
	secret string
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewReceiptService(secret, issuer string, ttl time.Duration) *ReceiptService {
	return &ReceiptService{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs the seed, table size and talon of hand.
func (s *ReceiptService) Issue(matchID string, hand *Hand) (string, error) {
	if s == nil || s.secret == "" || s.issuer == "" {
		return "", ErrReceiptConfig
	}
	if hand == nil || hand.State == nil {
		return "", ErrNoHand
	}

	now := s.now()
	claims := jwt.MapClaims{
		"iss":     s.issuer,
		"sub":     matchID,
		"iat":     now.Unix(),
		"exp":     now.Add(s.ttl).Unix(),
		"seed":    strconv.FormatInt(hand.State.Seed(), 10), // float64 claims lose int64 precision
		"players": hand.State.NumPlayers(),
		"talon":   hand.State.TalonIDs(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// Verify checks signature, issuer and expiry, then re-deals the seed and
// compares the talon.
func (s *ReceiptService) Verify(tokenString string) (*Receipt, error) {
	if s == nil || s.secret == "" || s.issuer == "" {
		return nil, ErrReceiptConfig
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReceiptInvalid, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrReceiptInvalid
	}
	if !claims.VerifyIssuer(s.issuer, true) {
		return nil, fmt.Errorf("%w: issuer", ErrReceiptInvalid)
	}

	receipt, err := receiptFromClaims(claims)
	if err != nil {
		return nil, err
	}

	talon, _, err := domain.DealCards(receipt.NumPlayers, receipt.Seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReceiptInvalid, err)
	}
	if !slices.Equal(talon, receipt.Talon) {
		return nil, ErrReceiptMismatch
	}
	return receipt, nil
}

func receiptFromClaims(claims jwt.MapClaims) (*Receipt, error) {
	seedStr, _ := claims["seed"].(string)
	seed, err := strconv.ParseInt(seedStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: seed %q", ErrReceiptInvalid, seedStr)
	}
	players, ok := claims["players"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: players", ErrReceiptInvalid)
	}
	raw, ok := claims["talon"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: talon", ErrReceiptInvalid)
	}
	talon := make([]int, 0, len(raw))
	for _, v := range raw {
		id, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: talon entry %v", ErrReceiptInvalid, v)
		}
		talon = append(talon, int(id))
	}

	matchID, _ := claims["sub"].(string)
	receipt := &Receipt{
		MatchID:    matchID,
		Seed:       seed,
		NumPlayers: int(players),
		Talon:      talon,
	}
	if iat, ok := claims["iat"].(float64); ok {
		receipt.IssuedAt = time.Unix(int64(iat), 0)
	}
	return receipt, nil
}
