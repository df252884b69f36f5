package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// CurrentSchemaVersion is the first byte of every encoded session.
const CurrentSchemaVersion = 1

// Encode serializes s in the compact binary format stored in Redis. The ID is
// the Redis key and is not part of the payload.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(CurrentSchemaVersion)

	for _, field := range []struct {
		name  string
		value string
	}{
		{"accountID", s.AccountID},
		{"username", s.Username},
		{"pendingAccountID", s.PendingAccountID},
		{"pendingTOTPSecret", s.PendingTOTPSecret},
	} {
		if len(field.value) > 255 {
			return nil, fmt.Errorf("%s too long", field.name)
		}
		buf.WriteByte(byte(len(field.value)))
		buf.WriteString(field.value)
	}

	buf.WriteByte(s.PendingAttempts)
	for _, v := range []int64{s.PendingSince, s.CreatedAt, s.ExpiresAt} {
		if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// Decode parses a payload produced by Encode.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != CurrentSchemaVersion {
		return nil, fmt.Errorf("unsupported session schema version %d", version)
	}

	s := &Session{}
	for _, dst := range []*string{&s.AccountID, &s.Username, &s.PendingAccountID, &s.PendingTOTPSecret} {
		if *dst, err = readString(reader); err != nil {
			return nil, err
		}
	}

	if s.PendingAttempts, err = reader.ReadByte(); err != nil {
		return nil, err
	}
	for _, dst := range []*int64{&s.PendingSince, &s.CreatedAt, &s.ExpiresAt} {
		if err := binary.Read(reader, binary.BigEndian, dst); err != nil {
			return nil, err
		}
	}
	if reader.Len() != 0 {
		return nil, errors.New("trailing session bytes")
	}

	return s, nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
