package service

import "errors"

var (
	ErrPostNotFound        = errors.New("post not found")
	ErrPersonaNotFound     = errors.New("persona not found")
	ErrPersonaNotConnected = errors.New("persona is not connected to Threads")
	ErrAlreadyPublished    = errors.New("post is already published")
	ErrPostLocked          = errors.New("post can no longer be edited")
	ErrInvalidCredential   = errors.New("stored credential cannot be decrypted")
	ErrInvalidPost         = errors.New("invalid post")
	ErrInvalidSettings     = errors.New("invalid scheduling settings")
)
