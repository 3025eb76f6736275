package mocks

import (
	"io"

	"github.com/stretchr/testify/mock"
)

type BlobStoreMock struct {
	mock.Mock
}

func (m *BlobStoreMock) Save(r io.Reader, originalName string) (string, int64, error) {
	args := m.Called(r, originalName)
	return args.String(0), args.Get(1).(int64), args.Error(2)
}

func (m *BlobStoreMock) Remove(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

func (m *BlobStoreMock) RemoveAll() error {
	args := m.Called()
	return args.Error(0)
}
