// Package i18n holds the UI message catalogs and language negotiation.
package i18n

import (
	"context"
	"strings"
)

// Default is the language used when nothing better is known.
const Default = "pt"

type ctxKey struct{}

var catalogs = map[string]map[string]string{
	"pt": {
		"required":             "Obrigatório",
		"invalid":              "Inválido",
		"invalid_email":        "E-mail inválido",
		"too_short":            "A senha deve ter pelo menos 6 caracteres.",
		"too_long":             "Muito longo",
		"mismatch":             "As senhas não coincidem.",
		"out_of_range":         "Fora do intervalo",
		"invalid_choice":       "Opção inválida",
		"invalid_date":         "Data inválida",
		"must_not_be_negative": "Não pode ser negativo",
		"email_taken":          "Este e-mail já está cadastrado.",
		"invalid_credentials":  "E-mail ou senha inválidos.",
		"reset_sent":           "Se o e-mail estiver cadastrado, enviaremos um link para redefinir a senha.",
		"reset_invalid":        "Link de redefinição inválido ou expirado.",
		"password_updated":     "Senha atualizada com sucesso.",
		"event_date_required":  "Informe a data do evento.",
		"items_required":       "Adicione pelo menos um item.",
		"name_required":        "Por favor, informe seu nome completo.",
		"signature_required":   "Desenhe sua assinatura para continuar.",
		"already_signed":       "Este contrato já foi assinado.",
		"contract_not_found":   "Contrato não encontrado",
		"download_failed":      "Erro ao baixar o arquivo. Tente novamente.",
		"subscription_needed":  "Assine para baixar os materiais.",
		"profile_incomplete":   "Seu perfil está incompleto. Preencha nome da loja, CPF/CNPJ e telefone em Configurações.",
		"profile_saved":        "Perfil salvo com sucesso.",
		"file_required":        "Selecione o arquivo do material.",
		"upload_failed":        "Erro ao enviar arquivo.",
		"status_pending":       "Aguardando assinatura",
		"status_signed":        "Assinado",
		"status_cancelled":     "Cancelado",
		"kit_saved":            "Kit salvo.",
		"confirm_required":     "Confirme a exclusão.",
		"nav_materials":        "Materiais",
		"nav_calculator":       "Calculadora",
		"nav_contracts":        "Contratos",
		"nav_settings":         "Configurações",
		"nav_admin":            "Admin",
		"nav_logout":           "Sair",
	},
	"en": {
		"required":             "Required",
		"invalid":              "Invalid",
		"invalid_email":        "Invalid email",
		"too_short":            "Password must be at least 6 characters.",
		"too_long":             "Too long",
		"mismatch":             "Passwords do not match.",
		"out_of_range":         "Out of range",
		"invalid_choice":       "Invalid choice",
		"invalid_date":         "Invalid date",
		"must_not_be_negative": "Must not be negative",
		"email_taken":          "This email is already registered.",
		"invalid_credentials":  "Invalid email or password.",
		"reset_sent":           "If the email is registered, we will send a reset link.",
		"reset_invalid":        "Invalid or expired reset link.",
		"password_updated":     "Password updated.",
		"event_date_required":  "Enter the event date.",
		"items_required":       "Add at least one item.",
		"name_required":        "Please enter your full name.",
		"signature_required":   "Draw your signature to continue.",
		"already_signed":       "This contract has already been signed.",
		"contract_not_found":   "Contract not found",
		"download_failed":      "Could not download the file. Try again.",
		"subscription_needed":  "Subscribe to download materials.",
		"profile_incomplete":   "Your profile is incomplete. Fill in store name, tax id and phone in Settings.",
		"profile_saved":        "Profile saved.",
		"file_required":        "Select the material file.",
		"upload_failed":        "Upload failed.",
		"status_pending":       "Awaiting signature",
		"status_signed":        "Signed",
		"status_cancelled":     "Cancelled",
		"kit_saved":            "Kit saved.",
		"confirm_required":     "Confirm the deletion.",
		"nav_materials":        "Materials",
		"nav_calculator":       "Calculator",
		"nav_contracts":        "Contracts",
		"nav_settings":         "Settings",
		"nav_admin":            "Admin",
		"nav_logout":           "Log out",
	},
}

// Supported reports whether lang has a catalog.
func Supported(lang string) bool {
	_, ok := catalogs[lang]
	return ok
}

// T translates code, falling back to the default catalog and then to the code itself.
func T(lang, code string) string {
	if c, ok := catalogs[lang]; ok {
		if msg, ok := c[code]; ok {
			return msg
		}
	}
	if msg, ok := catalogs[Default][code]; ok {
		return msg
	}
	return code
}

// DetectLanguage picks the first supported primary tag from an Accept-Language header.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		primary := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if Supported(primary) {
			return primary
		}
	}
	return Default
}

// WithLang stores the request language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LangFromContext returns the request language or Default.
func LangFromContext(ctx context.Context) string {
	if l, ok := ctx.Value(ctxKey{}).(string); ok && l != "" {
		return l
	}
	return Default
}
