package api

import (
	"context"

	"github.com/google/uuid"
)

// SearchLimitNone asks the API for its default page size.
const SearchLimitNone = 0

type AudioPlayService interface {
	Get(ctx context.Context, id uuid.UUID) Result[AudioPlay]
	// Search runs a title/synopsis search. A limit of SearchLimitNone
	// leaves the page size to the API.
	Search(ctx context.Context, query string, limit int) Result[SearchAudioPlaysResponse]
	GetLocation(ctx context.Context, token string, id uuid.UUID) Result[AudioPlayLocation]
}

type AuthenticationService interface {
	Login(ctx context.Context, req AuthenticateUserRequest) Result[AuthenticateUserResponse]
	Register(ctx context.Context, req CreateUserRequest) Result[AuthenticateUserResponse]
}
