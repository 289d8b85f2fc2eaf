// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/hafiz/pkg/pointer"
)

func TestPointer(t *testing.T) {
	assert.Equal(t, "A", *pointer.To("A"))
	assert.Equal(t, "", pointer.Val[string](nil))
	assert.Equal(t, 3, pointer.Val(pointer.To(3)))
	assert.Nil(t, pointer.NilIfZero(""))
	assert.Equal(t, "3201", *pointer.NilIfZero("3201"))
}
