package types

import (
	"encoding/json"

	"github.com/ethcanon/ethcanon/rlp"
)

// Log represents a contract log event. Only Address, Topics and Data
// are consensus fields; the rest are derived from the inclusion context.
type Log struct {
	Address Address
	Topics  []Hash
	Data    []byte

	// Derived fields, filled in when the log is packaged into a receipt.
	BlockNumber uint64
	TxHash      Hash
	TxIndex     uint64
	BlockHash   Hash
	Index       uint64
	Removed     bool
}

// logRLP is the consensus encoding of a log: address, topics, data.
type logRLP struct {
	Address Address
	Topics  []Hash
	Data    []byte
}

// EncodeRLP returns the consensus RLP encoding of the log.
func (l *Log) EncodeRLP() ([]byte, error) {
	return rlp.EncodeToBytes(logRLP{Address: l.Address, Topics: l.Topics, Data: l.Data})
}

// decodeLogRLP reads one log from an open RLP stream.
func decodeLogRLP(s *rlp.Stream) (*Log, error) {
	var enc logRLP
	if _, err := s.List(); err != nil {
		return nil, err
	}
	addr, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	enc.Address = BytesToAddress(addr)
	if _, err := s.List(); err != nil {
		return nil, err
	}
	for !s.AtListEnd() {
		t, err := s.Bytes()
		if err != nil {
			return nil, err
		}
		enc.Topics = append(enc.Topics, BytesToHash(t))
	}
	if err := s.ListEnd(); err != nil {
		return nil, err
	}
	data, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	enc.Data = append([]byte(nil), data...)
	if err := s.ListEnd(); err != nil {
		return nil, err
	}
	return &Log{Address: enc.Address, Topics: enc.Topics, Data: enc.Data}, nil
}

type logJSON struct {
	Address          Address   `json:"address"`
	Topics           []Hash    `json:"topics"`
	Data             HexBytes  `json:"data"`
	BlockNumber      HexUint64 `json:"blockNumber"`
	TransactionHash  Hash      `json:"transactionHash"`
	TransactionIndex HexUint64 `json:"transactionIndex"`
	BlockHash        Hash      `json:"blockHash"`
	LogIndex         HexUint64 `json:"logIndex"`
	Removed          bool      `json:"removed"`
}

// MarshalJSON encodes the log in the RPC shape.
func (l *Log) MarshalJSON() ([]byte, error) {
	return json.Marshal(logJSON{
		Address:          l.Address,
		Topics:           l.Topics,
		Data:             l.Data,
		BlockNumber:      HexUint64(l.BlockNumber),
		TransactionHash:  l.TxHash,
		TransactionIndex: HexUint64(l.TxIndex),
		BlockHash:        l.BlockHash,
		LogIndex:         HexUint64(l.Index),
		Removed:          l.Removed,
	})
}

// UnmarshalJSON decodes the RPC shape of the log.
func (l *Log) UnmarshalJSON(input []byte) error {
	var dec logJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	l.Address = dec.Address
	l.Topics = dec.Topics
	l.Data = dec.Data
	l.BlockNumber = uint64(dec.BlockNumber)
	l.TxHash = dec.TransactionHash
	l.TxIndex = uint64(dec.TransactionIndex)
	l.BlockHash = dec.BlockHash
	l.Index = uint64(dec.LogIndex)
	l.Removed = dec.Removed
	return nil
}
