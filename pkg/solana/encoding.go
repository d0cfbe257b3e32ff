package solana

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/pkg/errors"

	"github.com/code-payments/dice-client/pkg/solana/shortvec"
)

func (t Transaction) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	_, _ = shortvec.EncodeLen(b, len(t.Signatures))
	for _, s := range t.Signatures {
		_, _ = b.Write(s[:])
	}

	_, _ = b.Write(t.Message.Marshal())

	return b.Bytes()
}

func (t *Transaction) Unmarshal(b []byte) error {
	buf := bytes.NewBuffer(b)

	sigLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read signature length")
	}

	t.Signatures = make([]Signature, sigLen)
	for i := 0; i < sigLen; i++ {
		if _, err = io.ReadFull(buf, t.Signatures[i][:]); err != nil {
			return errors.Wrapf(err, "failed to read signature at %d", i)
		}
	}

	return (&t.Message).Unmarshal(buf.Bytes())
}

// Marshal encodes the message in the legacy wire format, which is also the
// payload that signers sign.
func (m Message) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	_ = b.WriteByte(m.Header.NumSignatures)
	_ = b.WriteByte(m.Header.NumReadonlySigned)
	_ = b.WriteByte(m.Header.NumReadOnly)

	_, _ = shortvec.EncodeLen(b, len(m.Accounts))
	for _, a := range m.Accounts {
		_, _ = b.Write(a)
	}

	_, _ = b.Write(m.RecentBlockhash[:])

	_, _ = shortvec.EncodeLen(b, len(m.Instructions))
	for _, i := range m.Instructions {
		_ = b.WriteByte(i.ProgramIndex)

		_, _ = shortvec.EncodeLen(b, len(i.Accounts))
		_, _ = b.Write(i.Accounts)

		_, _ = shortvec.EncodeLen(b, len(i.Data))
		_, _ = b.Write(i.Data)
	}

	return b.Bytes()
}

func (m *Message) Unmarshal(b []byte) (err error) {
	if len(b) == 0 {
		return errors.New("empty message")
	}
	// The high bit marks a versioned message.
	if b[0]&0x80 != 0 {
		return errors.New("versioned messages not supported")
	}

	buf := bytes.NewBuffer(b)

	if m.Header.NumSignatures, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num signatures")
	}
	if m.Header.NumReadonlySigned, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num readonly signatures")
	}
	if m.Header.NumReadOnly, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num readonly")
	}

	accountLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read account len")
	}
	m.Accounts = make([]ed25519.PublicKey, accountLen)
	for i := 0; i < accountLen; i++ {
		m.Accounts[i] = make([]byte, ed25519.PublicKeySize)
		if _, err = io.ReadFull(buf, m.Accounts[i]); err != nil {
			return errors.Wrapf(err, "failed to read account at index %d", i)
		}
	}

	if _, err = io.ReadFull(buf, m.RecentBlockhash[:]); err != nil {
		return errors.Wrap(err, "failed to read recent block hash")
	}

	instructionLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read instruction len")
	}
	m.Instructions = make([]CompiledInstruction, instructionLen)
	for i := 0; i < instructionLen; i++ {
		if m.Instructions[i], err = m.unmarshalInstruction(buf, i); err != nil {
			return err
		}
	}

	return nil
}

func (m *Message) unmarshalInstruction(buf *bytes.Buffer, i int) (c CompiledInstruction, err error) {
	if c.ProgramIndex, err = buf.ReadByte(); err != nil {
		return c, errors.Wrapf(err, "failed to read instruction[%d] program index", i)
	}
	if int(c.ProgramIndex) >= len(m.Accounts) {
		return c, errors.Errorf("program index out of range: %d:%d", i, c.ProgramIndex)
	}

	accountLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return c, errors.Wrapf(err, "failed to read instruction[%d] account len", i)
	}
	c.Accounts = make([]byte, accountLen)
	if _, err = io.ReadFull(buf, c.Accounts); err != nil {
		return c, errors.Wrapf(err, "failed to read instruction[%d] accounts", i)
	}
	for _, index := range c.Accounts {
		if int(index) >= len(m.Accounts) {
			return c, errors.Errorf("account index out of range: %d:%d", i, index)
		}
	}

	dataLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return c, errors.Wrapf(err, "failed to read instruction[%d] data len", i)
	}
	c.Data = make([]byte, dataLen)
	if _, err = io.ReadFull(buf, c.Data); err != nil {
		return c, errors.Wrapf(err, "failed to read instruction[%d] data", i)
	}

	return c, nil
}

// Decompile expands a compiled instruction back into program and account
// metas using the message's account table.
func (m *Message) Decompile(c CompiledInstruction) Instruction {
	ix := Instruction{
		Program: m.Accounts[c.ProgramIndex],
		Data:    c.Data,
	}
	for _, index := range c.Accounts {
		ix.Accounts = append(ix.Accounts, AccountMeta{
			PublicKey:  m.Accounts[index],
			IsSigner:   m.IsSigner(int(index)),
			IsWritable: m.IsWritable(int(index)),
		})
	}
	return ix
}
