// Package i18n holds the user-facing messages of the API in every supported
// language.
package i18n

import (
	"golang.org/x/text/language"
)

type Key string

const (
	UserNotFound     Key = "user.not_found"
	UserDeleted      Key = "user.deleted"
	UserEmailTaken   Key = "user.email_taken"
	UserCreateFailed Key = "user.create_failed"
	UserListFailed   Key = "user.list_failed"
	UserGetFailed    Key = "user.get_failed"
	UserUpdateFailed Key = "user.update_failed"
	UserDeleteFailed Key = "user.delete_failed"

	RouteNotFound    Key = "route.not_found"
	InvalidInput     Key = "request.invalid"
	InvalidJSON      Key = "request.invalid_json"
	BodyTooLarge     Key = "request.body_too_large"
	TooManyRequests  Key = "request.too_many"
	InternalError    Key = "internal"
	StoreUnavailable Key = "store.unavailable"
)

var supported = []language.Tag{
	language.BrazilianPortuguese, // default
	language.English,
}

var matcher = language.NewMatcher(supported)

var catalogs = map[language.Tag]map[Key]string{
	language.BrazilianPortuguese: {
		UserNotFound:     "Usuário não encontrado",
		UserDeleted:      "Usuário deletado!",
		UserEmailTaken:   "O e-mail fornecido já está em uso.",
		UserCreateFailed: "Não foi possível criar o usuário",
		UserListFailed:   "Não foi possível listar os usuários",
		UserGetFailed:    "Não foi possível retornar o usuário",
		UserUpdateFailed: "Não foi possível atualizar o usuário",
		UserDeleteFailed: "Não foi possível deletar o usuário",
		RouteNotFound:    "Não encontrado",
		InvalidInput:     "Dados inválidos",
		InvalidJSON:      "Corpo da requisição inválido",
		BodyTooLarge:     "Corpo da requisição muito grande",
		TooManyRequests:  "Muitas requisições. Tente novamente em instantes.",
		InternalError:    "Erro interno do servidor",
		StoreUnavailable: "Armazenamento indisponível",
	},
	language.English: {
		UserNotFound:     "User not found",
		UserDeleted:      "User deleted!",
		UserEmailTaken:   "The provided email is already in use.",
		UserCreateFailed: "Could not create user",
		UserListFailed:   "Could not list users",
		UserGetFailed:    "Could not retrieve user",
		UserUpdateFailed: "Could not update user",
		UserDeleteFailed: "Could not delete user",
		RouteNotFound:    "Not found",
		InvalidInput:     "Invalid input",
		InvalidJSON:      "Invalid request body",
		BodyTooLarge:     "Request body too large",
		TooManyRequests:  "Too many requests. Please try again shortly.",
		InternalError:    "Internal server error",
		StoreUnavailable: "Store unavailable",
	},
}

// field rule messages, keyed by "<field>.<rule>" with a "<rule>" fallback
var fieldCatalogs = map[language.Tag]map[string]string{
	language.BrazilianPortuguese: {
		"userId.required": "O ID do usuário é obrigatório.",
		"name.required":   "O nome é obrigatório.",
		"name.min":        "O nome deve ter pelo menos 3 caracteres.",
		"email.required":  "O e-mail é obrigatório.",
		"email.email":     "O e-mail fornecido não é válido.",
		"required":        "Campo obrigatório.",
		"type":            "Tipo inválido.",
		"invalid":         "Valor inválido.",
	},
	language.English: {
		"userId.required": "The user id is required.",
		"name.required":   "The name is required.",
		"name.min":        "The name must be at least 3 characters long.",
		"email.required":  "The email is required.",
		"email.email":     "The provided email is not valid.",
		"required":        "This field is required.",
		"type":            "Invalid type.",
		"invalid":         "Invalid value.",
	},
}

// Catalog resolves message keys for one language.
type Catalog struct {
	tag    language.Tag
	msgs   map[Key]string
	fields map[string]string
}

// New matches locale against the supported languages. Unparsable or
// unsupported locales fall back to Brazilian Portuguese.
func New(locale string) *Catalog {
	tag := supported[0]

	if parsed, err := language.Parse(locale); err == nil {
		_, idx, conf := matcher.Match(parsed)
		if conf != language.No {
			tag = supported[idx]
		}
	}

	return &Catalog{
		tag:    tag,
		msgs:   catalogs[tag],
		fields: fieldCatalogs[tag],
	}
}

func (c *Catalog) Tag() language.Tag {
	return c.tag
}

// T returns the message for key, or the key itself when it has no entry.
func (c *Catalog) T(key Key) string {
	if msg, ok := c.msgs[key]; ok {
		return msg
	}
	return string(key)
}

// Field returns the message for a violated validation rule on field.
func (c *Catalog) Field(field, rule string) string {
	if msg, ok := c.fields[field+"."+rule]; ok {
		return msg
	}
	if msg, ok := c.fields[rule]; ok {
		return msg
	}
	return c.fields["invalid"]
}
