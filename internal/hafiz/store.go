// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package hafiz

import (
	"context"

	"github.com/taibuivan/hafiz/internal/access"
)

// Repository reads and updates registry records. Every method takes the
// caller's [access.Filter]; rows outside it behave as if they did not exist.
type Repository interface {
	List(context context.Context, filter access.Filter, limit, offset int) ([]*Hafiz, int, error)
	Get(context context.Context, filter access.Filter, id string) (*Hafiz, error)
	UpdateIncentive(context context.Context, filter access.Filter, id, status string) (*Hafiz, error)
}
