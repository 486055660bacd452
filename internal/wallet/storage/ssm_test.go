package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	params  map[string]string
	kinds   map[string]types.ParameterType
	failAll error
}

func newFakeSSM() *fakeSSM {
	return &fakeSSM{params: map[string]string{}, kinds: map[string]types.ParameterType{}}
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	v, ok := f.params[aws.ToString(in.Name)]
	if !ok {
		return nil, &types.ParameterNotFound{Message: aws.String("not found")}
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: in.Name, Value: aws.String(v)}}, nil
}

func (f *fakeSSM) PutParameter(_ context.Context, in *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	f.params[aws.ToString(in.Name)] = aws.ToString(in.Value)
	f.kinds[aws.ToString(in.Name)] = in.Type
	return &ssm.PutParameterOutput{}, nil
}

func (f *fakeSSM) DeleteParameter(_ context.Context, in *ssm.DeleteParameterInput, _ ...func(*ssm.Options)) (*ssm.DeleteParameterOutput, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	if _, ok := f.params[aws.ToString(in.Name)]; !ok {
		return nil, &types.ParameterNotFound{Message: aws.String("not found")}
	}
	delete(f.params, aws.ToString(in.Name))
	return &ssm.DeleteParameterOutput{}, nil
}

func TestNewSSMStorage_NormalisesPrefix(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"gophwallet", "/gophwallet/"},
		{"/gophwallet", "/gophwallet/"},
		{"/gophwallet/", "/gophwallet/"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s := NewSSMStorage(newFakeSSM(), tt.in)
			assert.Equal(t, tt.want+"hashKey", s.name("hashKey"))
		})
	}
}

func TestSSMStorage_RoundTripAsSecureString(t *testing.T) {
	ctx := context.Background()
	fake := newFakeSSM()
	s := NewSSMStorage(fake, "/wallet")

	value := []byte{0x00, 0xff, 0x10, 'x'}
	require.NoError(t, s.Set(ctx, "hashKeySalt", value))
	assert.Equal(t, types.ParameterTypeSecureString, fake.kinds["/wallet/hashKeySalt"])

	got, err := s.Get(ctx, "hashKeySalt")
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func TestSSMStorage_NotFoundIsAbsent(t *testing.T) {
	ctx := context.Background()
	s := NewSSMStorage(newFakeSSM(), "/wallet")

	got, err := s.Get(ctx, "temporaryStore")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Remove(ctx, "temporaryStore"))
}

func TestSSMStorage_ServiceErrorsAreStorageIO(t *testing.T) {
	ctx := context.Background()
	fake := newFakeSSM()
	fake.failAll = errors.New("throttled")
	s := NewSSMStorage(fake, "/wallet")

	_, err := s.Get(ctx, "k")
	assert.True(t, errors.Is(err, common.ErrStorageIO))
	assert.True(t, errors.Is(s.Set(ctx, "k", []byte("v")), common.ErrStorageIO))
	assert.True(t, errors.Is(s.Remove(ctx, "k"), common.ErrStorageIO))
}

func TestSSMStorage_UndecodableValue(t *testing.T) {
	ctx := context.Background()
	fake := newFakeSSM()
	fake.params["/wallet/k"] = "%%% not base64"
	s := NewSSMStorage(fake, "/wallet")

	_, err := s.Get(ctx, "k")
	assert.True(t, errors.Is(err, common.ErrStorageIO))
}
