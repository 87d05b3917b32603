package mail

import (
	"errors"
	"log"
	"regexp"

	"gorm.io/gorm"

	"github.com/vitrinelabs/vitrine/app/models"
)

// Template is a resolved subject/body pair ready for substitution.
type Template struct {
	Subject string
	Body    string
}

var defaultTemplates = map[string]Template{
	models.EmailTemplateOrderPaid: {
		Subject: "Pagamento confirmado: pedido #{{order_id}}",
		Body: "<p>Olá {{name}},</p>" +
			"<p>Recebemos o pagamento do seu pedido <strong>#{{order_id}}</strong> " +
			"no valor de <strong>{{total}}</strong> ({{item_count}} item(ns)).</p>" +
			"<p><a href=\"{{order_url}}\">Acompanhe seu pedido</a></p>",
	},
	models.EmailTemplateOrderCancelled: {
		Subject: "Pedido #{{order_id}} {{status}}",
		Body: "<p>Olá {{name}},</p>" +
			"<p>Seu pedido <strong>#{{order_id}}</strong> foi {{status}}.{{reason}}</p>" +
			"<p><a href=\"{{order_url}}\">Detalhes do pedido</a></p>",
	},
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Render substitutes {{name}} placeholders. Unknown placeholders render
// empty rather than erroring, so template edits in the admin can never break
// the dispatch path.
func Render(text string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		return vars[key]
	})
}

// LookupTemplate resolves an admin override for the key, falling back to the
// built-in default. A failing override lookup also falls back, so a broken
// templates table never drops the email. Returns false only when the key has
// no default either.
func LookupTemplate(db *gorm.DB, key string) (Template, bool) {
	if db != nil {
		var row models.EmailTemplate
		err := db.Where("template_key = ? AND is_active = ?", key, true).First(&row).Error
		if err == nil {
			return Template{Subject: row.Subject, Body: row.Body}, true
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("mail: override lookup for template %q failed, using default: %v", key, err)
		}
	}
	tpl, ok := defaultTemplates[key]
	return tpl, ok
}
