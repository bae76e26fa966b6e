package domain

import "errors"

var (
	ErrInvalidPrice         = errors.New("invalid price")
	ErrInvalidTitle         = errors.New("invalid title")
	ErrInvalidImageRef      = errors.New("invalid image reference")
	ErrQuantityLimit        = errors.New("quantity limit exceeded")
	ErrCartFull             = errors.New("cart is full")
	ErrIndexOutOfRange      = errors.New("index out of range")
	ErrItemNotFound         = errors.New("item not found")
	ErrNotificationNotFound = errors.New("notification not found")
)
