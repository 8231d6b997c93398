package contracts

import (
	"time"

	"github.com/golang/protobuf/ptypes/timestamp"
	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
)

// mapStub is a map-backed stand-in for the chaincode stub. Methods the
// contract never touches fall through to the embedded nil interface and
// panic loudly if a test reaches them.
type mapStub struct {
	shim.ChaincodeStubInterface
	state  map[string][]byte
	events map[string][]byte
	now    time.Time
}

func newMapStub() *mapStub {
	return &mapStub{
		state:  make(map[string][]byte),
		events: make(map[string][]byte),
		now:    time.Unix(1700000000, 0),
	}
}

func (s *mapStub) GetState(key string) ([]byte, error) {
	return s.state[key], nil
}

func (s *mapStub) PutState(key string, value []byte) error {
	s.state[key] = value
	return nil
}

func (s *mapStub) DelState(key string) error {
	delete(s.state, key)
	return nil
}

func (s *mapStub) SetEvent(name string, payload []byte) error {
	s.events[name] = payload
	return nil
}

func (s *mapStub) GetTxTimestamp() (*timestamp.Timestamp, error) {
	return &timestamp.Timestamp{Seconds: s.now.Unix()}, nil
}

type testIdentity struct {
	cid.ClientIdentity
	id string
}

func (t *testIdentity) GetID() (string, error) {
	return t.id, nil
}

// testContext implements contractapi.TransactionContextInterface over the
// map stub with a configurable caller identity.
type testContext struct {
	stub     *mapStub
	identity *testIdentity
}

func ctxFor(stub *mapStub, caller string) *testContext {
	return &testContext{stub: stub, identity: &testIdentity{id: caller}}
}

func (c *testContext) GetStub() shim.ChaincodeStubInterface {
	return c.stub
}

func (c *testContext) GetClientIdentity() cid.ClientIdentity {
	return c.identity
}
