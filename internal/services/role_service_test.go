package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/interviewer/internal/utils"
)

func TestRoleLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	roles := NewRoleService(employerRepo{st}, roleRepo{st}, &scriptedLLM{}, nullLogger())

	_, err := roles.Create(ctx, "A", CreateRoleRequest{Name: "  "})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	role, err := roles.Create(ctx, "A", CreateRoleRequest{Name: "Platform Engineer", Skills: []string{"Go", " ", "Terraform"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Terraform"}, []string(role.Skills))

	list, err := roles.List(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	other, err := roles.List(ctx, "B")
	require.NoError(t, err)
	assert.Empty(t, other)

	err = roles.Delete(ctx, "B", role.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	require.NoError(t, roles.Delete(ctx, "A", role.ID))
	list, _ = roles.List(ctx, "A")
	assert.Empty(t, list)
}

func TestRoleDescribe(t *testing.T) {
	ctx := context.Background()
	provider := &scriptedLLM{}
	roles := NewRoleService(employerRepo{newStore()}, roleRepo{newStore()}, provider, nullLogger())

	provider.push(`{"description": "Owns the CI platform."}`, nil)
	d, err := roles.Describe(ctx, "Platform Engineer", "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Owns the CI platform.", d)
	assert.Contains(t, provider.lastMsgs[0].Content, "Company: Acme")

	provider.push("", errors.New("down"))
	d, err = roles.Describe(ctx, "Platform Engineer", "")
	require.NoError(t, err)
	assert.Empty(t, d)

	_, err = roles.Describe(ctx, "", "")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}
