package product

import "errors"

var ErrInvalidProduct = errors.New("invalid product")
