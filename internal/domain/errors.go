package domain

import "errors"

var (
	ErrNotFound = errors.New("registro nao encontrado")
	// ErrDuplicateBallot sinaliza violação do índice único do marcador de conclusão.
	ErrDuplicateBallot = errors.New("cedula duplicada")
	// ErrLockHeld indica outra submissão do mesmo eleitor em andamento.
	ErrLockHeld    = errors.New("cedula em processamento")
	ErrRateLimited = errors.New("limite de tentativas atingido")
)
