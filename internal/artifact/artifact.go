// Package artifact loads compiled contract artifacts (ABI plus creation bytecode).
package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	// ErrNoBytecode is returned when an artifact has no creation bytecode.
	ErrNoBytecode = errors.New("artifact: no creation bytecode")
	// ErrUnlinked is returned for bytecode with unresolved library placeholders.
	ErrUnlinked = errors.New("artifact: bytecode contains unlinked library references")
)

// ContractArtifact is a compiled contract.
type ContractArtifact struct {
	ContractName string          `json:"contractName,omitempty"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     Bytecode        `json:"bytecode"`

	// DeploymentBytecode is where ape / ethPM contract types keep the
	// creation code.
	DeploymentBytecode *Bytecode `json:"deploymentBytecode,omitempty"`

	parsed abi.ABI
}

// Bytecode holds hex bytecode in any of the common JSON shapes:
//   - "0x6080..."                  (Foundry, Hardhat)
//   - {"object": "0x6080..."}      (solc standard JSON, Foundry out/)
//   - {"bytecode": "0x6080..."}    (ape contract types)
type Bytecode struct {
	hex string
}

// UnmarshalJSON accepts every supported bytecode shape.
func (b *Bytecode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.hex = s
		return nil
	}

	var obj struct {
		Object   string `json:"object"`
		Bytecode string `json:"bytecode"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		if obj.Object != "" {
			b.hex = obj.Object
		} else {
			b.hex = obj.Bytecode
		}
		return nil
	}

	return fmt.Errorf("bytecode must be a string or an object with an 'object' or 'bytecode' field")
}

// MarshalJSON marshals the bytecode as a string.
func (b Bytecode) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.hex)
}

// String returns the bytecode hex string.
func (b Bytecode) String() string {
	return b.hex
}

// Bytes decodes the bytecode, tolerating a missing 0x prefix.
func (b Bytecode) Bytes() ([]byte, error) {
	h := strings.TrimSpace(b.hex)
	if h == "" || h == "0x" {
		return nil, ErrNoBytecode
	}
	if strings.Contains(h, "__") {
		return nil, ErrUnlinked
	}
	if !strings.HasPrefix(h, "0x") {
		h = "0x" + h
	}
	out, err := hexutil.Decode(h)
	if err != nil {
		return nil, fmt.Errorf("decode bytecode: %w", err)
	}
	return out, nil
}

// Load reads and parses an artifact file.
func Load(path string) (*ContractArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	a, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Parse decodes an artifact and checks it is deployable.
func Parse(data []byte) (*ContractArtifact, error) {
	var a ContractArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse artifact JSON: %w", err)
	}
	if len(a.ABI) == 0 {
		return nil, errors.New("artifact has no ABI")
	}
	parsed, err := abi.JSON(bytes.NewReader(a.ABI))
	if err != nil {
		return nil, fmt.Errorf("parse ABI: %w", err)
	}
	a.parsed = parsed

	if _, err := a.CreationCode(); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreationCode returns the bytecode used for deployment.
func (a *ContractArtifact) CreationCode() ([]byte, error) {
	if a.DeploymentBytecode != nil && a.DeploymentBytecode.hex != "" {
		return a.DeploymentBytecode.Bytes()
	}
	return a.Bytecode.Bytes()
}

// ABIDefinition returns the parsed ABI.
func (a *ContractArtifact) ABIDefinition() abi.ABI {
	return a.parsed
}

// ConstructorInputs returns the number of constructor parameters.
func (a *ContractArtifact) ConstructorInputs() int {
	return len(a.parsed.Constructor.Inputs)
}

// DeployData returns creation code followed by the ABI-encoded constructor
// arguments.
func (a *ContractArtifact) DeployData(args ...interface{}) ([]byte, error) {
	code, err := a.CreationCode()
	if err != nil {
		return nil, err
	}
	if want := a.ConstructorInputs(); want != len(args) {
		return nil, fmt.Errorf("constructor expects %d arguments, got %d", want, len(args))
	}
	if len(args) == 0 {
		return code, nil
	}

	encoded, err := a.parsed.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("encode constructor args: %w", err)
	}

	data := make([]byte, 0, len(code)+len(encoded))
	data = append(data, code...)
	return append(data, encoded...), nil
}
