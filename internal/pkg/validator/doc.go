// Package validator checks usecase inputs with go-playground/validator v10.
//
// Besides the built-in tags it registers "phone", which accepts anything
// internal/pkg/phone can normalize. Failures come back as V10ValidationError,
// keyed by snake_case field name with English messages, ready for the router
// to render.
package validator
