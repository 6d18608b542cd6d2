package types

import "testing"

func TestBloomAddTest(t *testing.T) {
	var b Bloom
	data := []byte("topic")
	if b.Test(data) {
		t.Fatal("empty bloom must not match")
	}
	b.Add(data)
	if !b.Test(data) {
		t.Fatal("bloom must match added data")
	}
	if b.Test([]byte("other topic")) {
		t.Fatal("bloom should not match unrelated data (collision in a 3-bit test vector)")
	}
}

func TestBloomBitCount(t *testing.T) {
	var b Bloom
	b.Add([]byte("x"))
	bits := 0
	for _, by := range b {
		for ; by != 0; by &= by - 1 {
			bits++
		}
	}
	if bits == 0 || bits > 3 {
		t.Fatalf("one entry must set 1 to 3 bits, got %d", bits)
	}
}

func TestLogsBloomCoversAddressAndTopics(t *testing.T) {
	l := sampleLog()
	b := LogsBloom([]*Log{l})
	if !b.Test(l.Address.Bytes()) {
		t.Fatal("bloom must cover the log address")
	}
	for _, topic := range l.Topics {
		if !b.Test(topic.Bytes()) {
			t.Fatal("bloom must cover every topic")
		}
	}
}

func TestCreateBloomUnionsReceipts(t *testing.T) {
	l1 := sampleLog()
	l2 := &Log{
		Address: HexToAddress("0x00000000000000000000000000000000000000ff"),
		Topics:  []Hash{HexToHash("0x22")},
	}
	receipts := []*Receipt{
		{Status: ReceiptStatusSuccessful, Logs: []*Log{l1}},
		{Status: ReceiptStatusFailed, Logs: []*Log{l2}},
	}
	b := CreateBloom(receipts)
	if !b.Test(l1.Address.Bytes()) || !b.Test(l2.Address.Bytes()) {
		t.Fatal("bloom must union the logs of every receipt")
	}
	if !b.Test(l1.Topics[0].Bytes()) || !b.Test(l2.Topics[0].Bytes()) {
		t.Fatal("bloom must union the topics of every receipt")
	}
}

func TestBytesToBloom(t *testing.T) {
	var raw [BloomLength]byte
	raw[0] = 0xff
	b := BytesToBloom(raw[:])
	if b[0] != 0xff {
		t.Fatalf("got %x", b[0])
	}
}
