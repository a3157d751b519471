package result

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOK(t *testing.T) {
	r := OK()
	assert.True(t, r.Success)
	assert.False(t, r.HasError)
	assert.Nil(t, r.ErrorMessage)
	assert.Nil(t, r.ID)
	assert.False(t, r.IsUpdated)
	assert.False(t, r.IsDeleted)
	assert.NoError(t, r.Check())
}

func TestOK_Options(t *testing.T) {
	created := OK(WithID(42))
	require.NotNil(t, created.ID)
	assert.Equal(t, int64(42), *created.ID)
	assert.NoError(t, created.Check())

	updated := OK(Updated())
	assert.True(t, updated.IsUpdated)
	assert.Nil(t, updated.ErrorMessage)
	assert.NoError(t, updated.Check())

	deleted := OK(Deleted())
	assert.True(t, deleted.IsDeleted)
	assert.NoError(t, deleted.Check())

	withData := OK(WithData([]string{"a"}))
	assert.Equal(t, []string{"a"}, withData.Data)
}

func TestFail(t *testing.T) {
	tests := []struct {
		name     string
		errMsg   string
		userMsg  string
		wantErr  string
		wantUser *string
	}{
		{name: "both messages", errMsg: "dev detail", userMsg: "user text", wantErr: "dev detail", wantUser: ptr("user text")},
		{name: "user only", errMsg: "", userMsg: "user text", wantErr: "user text", wantUser: ptr("user text")},
		{name: "dev only", errMsg: "dev detail", userMsg: "", wantErr: "dev detail"},
		{name: "neither", wantErr: genericFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Fail(tt.errMsg, tt.userMsg)
			assert.False(t, r.Success)
			assert.True(t, r.HasError)
			require.NotNil(t, r.ErrorMessage)
			assert.Equal(t, tt.wantErr, *r.ErrorMessage)
			assert.Equal(t, tt.wantUser, r.UserMessage)
			assert.False(t, r.IsUpdated)
			assert.False(t, r.IsDeleted)
			assert.NoError(t, r.Check())
		})
	}
}

func TestNotFound(t *testing.T) {
	r := NotFound("incoming wagon", 9223372036854775807)
	assert.False(t, r.Success)
	assert.True(t, r.HasError)
	assert.Equal(t, "incoming wagon with id 9223372036854775807 not found", r.Message())
	assert.NoError(t, r.Check())
}

func TestCheck_Violations(t *testing.T) {
	msg := "boom"
	empty := ""
	id := int64(1)

	tests := []struct {
		name string
		r    Result
		want error
	}{
		{name: "success with message", r: Result{Success: true, ErrorMessage: &msg}, want: ErrSuccessWithError},
		{name: "success with error flag", r: Result{Success: true, HasError: true, ErrorMessage: &msg}, want: ErrSuccessWithError},
		{name: "error without message", r: Result{HasError: true}, want: ErrMissingMessage},
		{name: "error with empty message", r: Result{HasError: true, ErrorMessage: &empty}, want: ErrMissingMessage},
		{name: "id and deleted", r: Result{Success: true, ID: &id, IsDeleted: true}, want: ErrConflictingMarker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.r.Check(), tt.want)
		})
	}
}

func TestResult_JSONShape(t *testing.T) {
	raw, err := json.Marshal(OK(WithID(5)))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"success":true,"hasError":false,"errorMessage":null,"userMessage":null,"id":5,"isUpdated":false,"isDeleted":false}`,
		string(raw))

	raw, err = json.Marshal(Fail("dev", "user"))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"success":false,"hasError":true,"errorMessage":"dev","userMessage":"user","id":null,"isUpdated":false,"isDeleted":false}`,
		string(raw))
}

func ptr(s string) *string { return &s }
