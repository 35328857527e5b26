package services

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diewo77/festakit/internal/format"
	"github.com/diewo77/festakit/internal/models"
)

// BlankParty is printed where a party name is still unknown.
const BlankParty = "___________________________"

//go:embed templates/contract_document.html
var documentFS embed.FS

var documentTmpl = template.Must(
	template.New("contract_document.html").
		Funcs(template.FuncMap{
			"brl":    format.BRL,
			"dateBR": format.DateBR,
			"qty":    func(d decimal.Decimal) string { return strings.Replace(d.String(), ".", ",", 1) },
			"deref": func(s *string) string {
				if s == nil {
					return ""
				}
				return *s
			},
		}).
		ParseFS(documentFS, "templates/contract_document.html"),
)

type documentData struct {
	Contract        *models.Contract
	Store           *models.StoreProfile
	LessorName      string
	Blank           string
	StoreSignature  template.URL
	ClientSignature template.URL
	SignedAt        string
	GeneratedOn     string
}

// RenderContractDocument renders the printable contract page. store may be nil.
// The page opens the browser print dialog once loaded.
func RenderContractDocument(c *models.Contract, store *models.StoreProfile, now time.Time) (string, error) {
	data := documentData{
		Contract:    c,
		Store:       store,
		Blank:       BlankParty,
		GeneratedOn: format.DateTimeBR(now)[:10],
	}
	if store != nil {
		data.LessorName = strings.TrimSpace(store.StoreName)
		data.StoreSignature = signatureURL(store.SignatureImage)
	}
	if c.SignatureImage != nil {
		data.ClientSignature = signatureURL(*c.SignatureImage)
	}
	if c.SignedAt != nil {
		data.SignedAt = format.DateTimeBR(*c.SignedAt)
	}

	var buf bytes.Buffer
	if err := documentTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// signatureURL trusts only PNG data URLs; anything else is dropped.
func signatureURL(s string) template.URL {
	if ValidateSignatureImage(s) != nil {
		return ""
	}
	return template.URL(s)
}
