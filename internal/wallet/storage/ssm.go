package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/dmitrijs2005/gophwallet/internal/common"
)

// SSMAPI is the subset of the SSM client used by SSMStorage.
type SSMAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, in *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
	DeleteParameter(ctx context.Context, in *ssm.DeleteParameterInput, optFns ...func(*ssm.Options)) (*ssm.DeleteParameterOutput, error)
}

// SSMStorage keeps secure values as SecureString parameters under a common
// path prefix. Values are base64 encoded since parameters hold text only.
type SSMStorage struct {
	client SSMAPI
	prefix string
}

func NewSSMStorage(client SSMAPI, prefix string) *SSMStorage {
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &SSMStorage{client: client, prefix: prefix}
}

func (s *SSMStorage) name(key string) string {
	return s.prefix + key
}

func isParameterNotFound(err error) bool {
	var nf *types.ParameterNotFound
	return errors.As(err, &nf)
}

func (s *SSMStorage) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(s.name(key)),
		WithDecryption: aws.Bool(true),
	})
	if isParameterNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get parameter[%s]: %w", common.ErrStorageIO, key, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return nil, nil
	}

	value, err := base64.StdEncoding.DecodeString(aws.ToString(out.Parameter.Value))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode parameter[%s]: %w", common.ErrStorageIO, key, err)
	}
	return value, nil
}

func (s *SSMStorage) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(s.name(key)),
		Value:     aws.String(base64.StdEncoding.EncodeToString(value)),
		Type:      types.ParameterTypeSecureString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to put parameter[%s]: %w", common.ErrStorageIO, key, err)
	}
	return nil
}

func (s *SSMStorage) Remove(ctx context.Context, key string) error {
	_, err := s.client.DeleteParameter(ctx, &ssm.DeleteParameterInput{
		Name: aws.String(s.name(key)),
	})
	if err != nil && !isParameterNotFound(err) {
		return fmt.Errorf("%w: failed to delete parameter[%s]: %w", common.ErrStorageIO, key, err)
	}
	return nil
}
