package tweak

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	testAddress  = common.HexToAddress("0x5afe")
	testCreation = common.HexToHash("0xc0ffee")
)

func writeProject(t *testing.T, meta CloneMetadata, initCode []byte) string {
	t.Helper()
	root := t.TempDir()

	raw, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("cannot marshal metadata: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, metadataFile), raw, 0644); err != nil {
		t.Fatalf("cannot write metadata: %v", err)
	}

	if initCode != nil {
		dir := filepath.Join(root, "out", filepath.Base(meta.Path))
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("cannot create artifact dir: %v", err)
		}
		art := map[string]interface{}{
			"bytecode": map[string]string{"object": hexutil.Encode(initCode)},
		}
		raw, err := json.Marshal(art)
		if err != nil {
			t.Fatalf("cannot marshal artifact: %v", err)
		}
		path := filepath.Join(dir, meta.TargetContract+".json")
		if err := os.WriteFile(path, raw, 0644); err != nil {
			t.Fatalf("cannot write artifact: %v", err)
		}
	}
	return root
}

func testMetadata() CloneMetadata {
	return CloneMetadata{
		Path:                "src/Counter.sol",
		TargetContract:      "Counter",
		Address:             testAddress,
		ChainID:             1,
		CreationTransaction: testCreation,
	}
}

func TestLoadClonedProject_ReadsMetadata(t *testing.T) {
	root := writeProject(t, testMetadata(), nil)

	project, err := LoadClonedProject(root)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if project.Metadata.Address != testAddress {
		t.Errorf("wrong address: %v", project.Metadata.Address)
	}
	if project.Metadata.CreationTransaction != testCreation {
		t.Errorf("wrong creation transaction: %v", project.Metadata.CreationTransaction)
	}
	if project.Root != root {
		t.Errorf("root not canonicalized: %v", project.Root)
	}
}

func TestLoadClonedProject_MissingMetadataIsLoadError(t *testing.T) {
	_, err := LoadClonedProject(t.TempDir())
	if !errors.Is(err, ErrLoadProject) {
		t.Errorf("wrong error: %v", err)
	}
}

func TestLoadClonedProject_MalformedMetadataIsLoadError(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, metadataFile), []byte("{broken"), 0644); err != nil {
		t.Fatalf("cannot write metadata: %v", err)
	}
	_, err := LoadClonedProject(root)
	if !errors.Is(err, ErrLoadProject) {
		t.Errorf("wrong error: %v", err)
	}
}

func TestLoadClonedProject_RejectsIncompleteMetadata(t *testing.T) {
	for name, mutate := range map[string]func(*CloneMetadata){
		"no address":  func(m *CloneMetadata) { m.Address = common.Address{} },
		"no creation": func(m *CloneMetadata) { m.CreationTransaction = common.Hash{} },
		"no contract": func(m *CloneMetadata) { m.TargetContract = "" },
		"no chain id": func(m *CloneMetadata) { m.ChainID = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			meta := testMetadata()
			mutate(&meta)
			_, err := LoadClonedProject(writeProject(t, meta, nil))
			if !errors.Is(err, ErrLoadProject) {
				t.Errorf("wrong error: %v", err)
			}
		})
	}
}

func TestInitCode_AppendsConstructorArguments(t *testing.T) {
	meta := testMetadata()
	meta.ConstructorArguments = hexutil.Bytes{0xaa, 0xbb}
	root := writeProject(t, meta, []byte{0x60, 0x00})

	project, err := LoadClonedProject(root)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	code, err := project.InitCode()
	if err != nil {
		t.Fatalf("init code failed: %v", err)
	}
	want := []byte{0x60, 0x00, 0xaa, 0xbb}
	if string(code) != string(want) {
		t.Errorf("wrong init code: %x", code)
	}
}

func TestInitCode_MissingArtifactIsLoadError(t *testing.T) {
	project, err := LoadClonedProject(writeProject(t, testMetadata(), nil))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, err := project.InitCode(); !errors.Is(err, ErrLoadProject) {
		t.Errorf("wrong error: %v", err)
	}
}
