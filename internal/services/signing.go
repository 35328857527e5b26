package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/festakit/internal/models"
)

// PNGDataURLPrefix prefixes every accepted signature image.
const PNGDataURLPrefix = "data:image/png;base64,"

// maxSignatureBytes bounds the decoded signature image.
const maxSignatureBytes = 2 << 20

// SigningStep is a screen of the counterparty signing page.
type SigningStep string

const (
	StepIdentity  SigningStep = "dados"
	StepTerms     SigningStep = "contrato"
	StepSignature SigningStep = "assinatura"
	StepSubmitted SigningStep = "enviado"
)

// ParseSigningStep maps the etapa query value to a step, defaulting to identity.
func ParseSigningStep(s string) SigningStep {
	switch SigningStep(s) {
	case StepTerms, StepSignature:
		return SigningStep(s)
	}
	return StepIdentity
}

// Identity is what the counterparty types about themselves.
type Identity struct {
	Name    string
	TaxID   string
	Phone   string
	Email   string
	Address string
}

// Submission is a completed flow ready to be persisted.
type Submission struct {
	Identity       Identity
	SignatureImage string
}

// SigningFlow walks the counterparty through identity, terms and signature.
// The zero value starts at StepIdentity.
type SigningFlow struct {
	step      SigningStep
	identity  Identity
	signature string
}

// Step returns the current step.
func (f *SigningFlow) Step() SigningStep {
	if f.step == "" {
		return StepIdentity
	}
	return f.step
}

// Identity returns the identity captured so far.
func (f *SigningFlow) Identity() Identity { return f.identity }

// SubmitIdentity requires a full name and moves to the terms.
func (f *SigningFlow) SubmitIdentity(id Identity) error {
	if f.Step() != StepIdentity {
		return ErrInvalidTransition
	}
	id.Name = strings.TrimSpace(id.Name)
	if id.Name == "" {
		return newValidationError("Por favor, informe seu nome completo.")
	}
	id.TaxID = strings.TrimSpace(id.TaxID)
	id.Phone = strings.TrimSpace(id.Phone)
	id.Email = strings.TrimSpace(id.Email)
	id.Address = strings.TrimSpace(id.Address)
	f.identity = id
	f.step = StepTerms
	return nil
}

// AcceptTerms moves from the terms to the signature pad.
func (f *SigningFlow) AcceptTerms() error {
	if f.Step() != StepTerms {
		return ErrInvalidTransition
	}
	f.step = StepSignature
	return nil
}

// Back returns to the previous step. The captured identity is kept.
func (f *SigningFlow) Back() error {
	switch f.Step() {
	case StepTerms:
		f.step = StepIdentity
	case StepSignature:
		f.signature = ""
		f.step = StepTerms
	default:
		return ErrInvalidTransition
	}
	return nil
}

// CaptureSignature stores the drawn signature as a PNG data URL.
func (f *SigningFlow) CaptureSignature(dataURL string) error {
	if f.Step() != StepSignature {
		return ErrInvalidTransition
	}
	if err := ValidateSignatureImage(dataURL); err != nil {
		return err
	}
	f.signature = dataURL
	return nil
}

// ClearSignature forgets the captured signature.
func (f *SigningFlow) ClearSignature() {
	f.signature = ""
}

// HasSignature reports whether a signature has been captured.
func (f *SigningFlow) HasSignature() bool { return f.signature != "" }

// Submit finishes the flow.
func (f *SigningFlow) Submit() (Submission, error) {
	if f.Step() != StepSignature {
		return Submission{}, ErrInvalidTransition
	}
	if f.identity.Name == "" {
		return Submission{}, newValidationError("Por favor, informe seu nome completo.")
	}
	if f.signature == "" {
		return Submission{}, newValidationError("Desenhe sua assinatura para continuar.")
	}
	f.step = StepSubmitted
	return Submission{Identity: f.identity, SignatureImage: f.signature}, nil
}

// ValidateSignatureImage accepts only non-empty base64 PNG data URLs.
func ValidateSignatureImage(dataURL string) error {
	invalid := newValidationError("Desenhe sua assinatura para continuar.")
	if !strings.HasPrefix(dataURL, PNGDataURLPrefix) {
		return invalid
	}
	payload := dataURL[len(PNGDataURLPrefix):]
	if payload == "" || base64.StdEncoding.DecodedLen(len(payload)) > maxSignatureBytes {
		return invalid
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(raw) < 8 || string(raw[1:4]) != "PNG" {
		return invalid
	}
	return nil
}

// SignatureService persists signatures. The signing token is the only credential.
type SignatureService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSignatureService(db *gorm.DB) *SignatureService {
	return &SignatureService{db: db, now: time.Now}
}

// FindByToken loads the contract and its owner's store profile for display.
func (s *SignatureService) FindByToken(ctx context.Context, token string) (*models.Contract, *models.StoreProfile, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil, ErrNotFound
	}
	var c models.Contract
	err := s.db.WithContext(ctx).Where("signing_token = ?", token).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, persistence("find contract by token", err)
	}
	var p models.StoreProfile
	err = s.db.WithContext(ctx).Where("user_id = ?", c.UserID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &c, nil, nil
	}
	if err != nil {
		return nil, nil, persistence("find store profile", err)
	}
	return &c, &p, nil
}

// Sign records the signature with a single conditional update, so a
// contract moves from pending to signed at most once.
func (s *SignatureService) Sign(ctx context.Context, token string, sub Submission) (*models.Contract, error) {
	name := strings.TrimSpace(sub.Identity.Name)
	if name == "" {
		return nil, newValidationError("Por favor, informe seu nome completo.")
	}
	if err := ValidateSignatureImage(sub.SignatureImage); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	res := db.Model(&models.Contract{}).
		Where("signing_token = ? AND status = ?", token, models.ContractPending).
		Updates(map[string]any{
			"status":          models.ContractSigned,
			"signed_at":       s.now().UTC(),
			"signature_image": sub.SignatureImage,
			"client_name":     name,
			"client_tax_id":   optional(sub.Identity.TaxID),
			"client_phone":    optional(sub.Identity.Phone),
			"client_email":    optional(sub.Identity.Email),
			"client_address":  optional(sub.Identity.Address),
		})
	if res.Error != nil {
		return nil, persistence("sign contract", res.Error)
	}

	var c models.Contract
	err := db.Where("signing_token = ?", token).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, persistence("reload contract", err)
	}
	if res.RowsAffected == 0 {
		if c.IsSigned() {
			return &c, ErrAlreadySigned
		}
		return nil, ErrNotFound
	}
	return &c, nil
}
