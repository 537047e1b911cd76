package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const (
	flowFormatVersionCurrent = 2
	flowFormatVersionV1      = 1
)

const (
	flagOTPRequested  = 1 << 0
	flagEmailVerified = 1 << 1
)

func writeShortString(buf *bytes.Buffer, field, s string) error {
	if len(s) > 255 {
		return errors.New(field + " too long")
	}
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
	return nil
}

func readShortString(reader *bytes.Reader) (string, error) {
	n, err := reader.ReadByte()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(reader, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// Encode serializes a flow [Record] into the current binary format.
func Encode(rec *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(flowFormatVersionCurrent)

	if err := writeShortString(&buf, "flowID", rec.FlowID); err != nil {
		return nil, err
	}
	if err := writeShortString(&buf, "tenantID", rec.TenantID); err != nil {
		return nil, err
	}
	if err := writeShortString(&buf, "email", rec.Email); err != nil {
		return nil, err
	}
	if err := writeShortString(&buf, "signupEmail", rec.SignupEmail); err != nil {
		return nil, err
	}

	var flags byte
	if rec.OTPRequested {
		flags |= flagOTPRequested
	}
	if rec.EmailVerified {
		flags |= flagEmailVerified
	}
	buf.WriteByte(flags)

	buf.WriteByte(rec.HasPassword)
	buf.WriteByte(rec.Step)
	buf.WriteByte(rec.OTPMode)

	for _, v := range []int64{
		rec.LastOTPRequestUnix,
		rec.CooldownUntilUnix,
		rec.CreatedAt,
		rec.ExpiresAt,
	} {
		if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// Decode parses a binary blob produced by [Encode]. Version 1 blobs,
// which predate the forced cooldown deadline, decode with
// CooldownUntilUnix zero.
func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != flowFormatVersionCurrent && version != flowFormatVersionV1 {
		return nil, errors.New("invalid flow record version")
	}

	rec := &Record{}

	if rec.FlowID, err = readShortString(reader); err != nil {
		return nil, err
	}
	if rec.TenantID, err = readShortString(reader); err != nil {
		return nil, err
	}
	if rec.Email, err = readShortString(reader); err != nil {
		return nil, err
	}
	if rec.SignupEmail, err = readShortString(reader); err != nil {
		return nil, err
	}

	flags, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	rec.OTPRequested = flags&flagOTPRequested != 0
	rec.EmailVerified = flags&flagEmailVerified != 0

	if rec.HasPassword, err = reader.ReadByte(); err != nil {
		return nil, err
	}
	if rec.Step, err = reader.ReadByte(); err != nil {
		return nil, err
	}
	if rec.OTPMode, err = reader.ReadByte(); err != nil {
		return nil, err
	}

	if err := binary.Read(reader, binary.BigEndian, &rec.LastOTPRequestUnix); err != nil {
		return nil, err
	}
	if version == flowFormatVersionCurrent {
		if err := binary.Read(reader, binary.BigEndian, &rec.CooldownUntilUnix); err != nil {
			return nil, err
		}
	}
	if err := binary.Read(reader, binary.BigEndian, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &rec.ExpiresAt); err != nil {
		return nil, err
	}

	return rec, nil
}
