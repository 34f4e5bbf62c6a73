package config_test

import (
	"testing"

	"github.com/jademcosta/syncbatcher/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestToBytes(t *testing.T) {
	const (
		kb int64 = 1 << 10
		mb int64 = 1 << 20
		gb int64 = 1 << 30
		tb int64 = 1 << 40
		pb int64 = 1 << 50
		eb int64 = 1 << 60
	)

	testCases := []struct {
		size        string
		sizeInBytes int64
		shouldError bool
	}{
		{size: "", sizeInBytes: 0},
		{size: "0", sizeInBytes: 0},
		{size: "409600", sizeInBytes: 409600},
		{size: "187349873947", sizeInBytes: 187349873947},

		{size: "1kb", sizeInBytes: kb},
		{size: "64KB", sizeInBytes: 64 * kb},
		{size: "1024kb", sizeInBytes: mb},
		{size: "1mb", sizeInBytes: mb},
		{size: "2MB", sizeInBytes: 2 * mb},
		{size: "20gb", sizeInBytes: 20 * gb},
		{size: "3TB", sizeInBytes: 3 * tb},
		{size: "1tb", sizeInBytes: tb},
		{size: "530PB", sizeInBytes: 530 * pb},
		{size: "7EB", sizeInBytes: 7 * eb},
		{size: "2Mb", sizeInBytes: 2 * mb},

		{size: "8EB", shouldError: true},
		{size: "99999999999999999999", shouldError: true},
		{size: "1a", shouldError: true},
		{size: "mb", shouldError: true},
		{size: "128kbkb", shouldError: true},
		{size: "-5", shouldError: true},
		{size: "1.5mb", shouldError: true},
		{size: "1 mb", shouldError: true},
	}

	for _, tc := range testCases {
		sizeInBytes, err := config.ToBytes(tc.size)

		if tc.shouldError {
			assert.Errorf(t, err, "size %q should be rejected", tc.size)
			continue
		}
		assert.NoErrorf(t, err, "size %q should be accepted", tc.size)
		assert.Equalf(t, tc.sizeInBytes, sizeInBytes, "size %q", tc.size)
	}
}
