package service

import (
	"galapagosrental/internal/lifecycle"
	"galapagosrental/internal/repository"
)

var (
	ErrReviewExists     = repository.ErrReviewExists
	ErrRefundNotAllowed = lifecycle.ErrRefundNotAllowed
)
