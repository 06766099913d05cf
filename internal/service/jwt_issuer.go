package service

import (
	"errors"
	"time"

	"catalance/internal/entity"
	"catalance/internal/utils"
)

type JWTAccessIssuer struct {
	Manager *utils.JWTManager
}

func (j JWTAccessIssuer) IssueAccessToken(user entity.User) (string, time.Duration, error) {
	if j.Manager == nil {
		return "", 0, errors.New("jwt manager is not configured")
	}
	return j.Manager.IssueAccessToken(user.ID.String(), string(user.Role), user.Email)
}
