// Package hh implements the job platform port for the hh.ru API.
//
// OAuth grants go through golang.org/x/oauth2. Résumé publishing is a plain
// authenticated POST; every outgoing request passes a token-bucket limiter
// that also honours Retry-After on 429 responses.
package hh
