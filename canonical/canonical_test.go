package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInput() Input {
	return Input{
		Patient: Patient{Name: "Jane Doe", Age: 34},
		Medicines: []Medicine{
			{Name: "Amoxicillin", Dosage: "500mg", Quantity: 21, Instructions: "take with food"},
			{Name: "Ibuprofen", Dosage: "200mg", Quantity: 10},
		},
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	a, err := Build(testInput())
	require.NoError(t, err)
	b, err := Build(testInput())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	assert.Regexp(t, `^0x[0-9a-f]{64}$`, a.PatientIdentityHash)
	assert.Regexp(t, `^0x[0-9a-f]{64}$`, a.MedicationHash)
}

func TestBuildIsOrderInvariant(t *testing.T) {
	in := testInput()
	reversed := testInput()
	reversed.Medicines[0], reversed.Medicines[1] = reversed.Medicines[1], reversed.Medicines[0]

	a, err := Build(in)
	require.NoError(t, err)
	b, err := Build(reversed)
	require.NoError(t, err)
	assert.Equal(t, a.MedicationHash, b.MedicationHash)
}

func TestBuildIgnoresInstructions(t *testing.T) {
	in := testInput()
	edited := testInput()
	edited.Medicines[0].Instructions = "completely rewritten after issuance"
	edited.Medicines[1].Instructions = "new note"

	a, err := Build(in)
	require.NoError(t, err)
	b, err := Build(edited)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildTrimsPatientFields(t *testing.T) {
	in := testInput()
	padded := testInput()
	padded.Patient.Name = "  Jane Doe  "
	padded.Patient.Age = " 34 "

	a, err := Build(in)
	require.NoError(t, err)
	b, err := Build(padded)
	require.NoError(t, err)
	assert.Equal(t, a.PatientIdentityHash, b.PatientIdentityHash)
}

func TestBuildIsSensitive(t *testing.T) {
	base, err := Build(testInput())
	require.NoError(t, err)

	mutations := []func(*Input){
		func(in *Input) { in.Medicines[0].Name = "Amoxicilline" },
		func(in *Input) { in.Medicines[0].Dosage = "250mg" },
		func(in *Input) { in.Medicines[0].Quantity = 20 },
	}
	for i, mutate := range mutations {
		in := testInput()
		mutate(&in)
		got, err := Build(in)
		require.NoError(t, err)
		assert.NotEqual(t, base.MedicationHash, got.MedicationHash, "mutation %d did not change the medication hash", i)
	}

	in := testInput()
	in.Patient.Age = 35
	got, err := Build(in)
	require.NoError(t, err)
	assert.NotEqual(t, base.PatientIdentityHash, got.PatientIdentityHash)

	in = testInput()
	in.Patient.Name = "Jane Roe"
	got, err = Build(in)
	require.NoError(t, err)
	assert.NotEqual(t, base.PatientIdentityHash, got.PatientIdentityHash)
}

func TestBuildAgeRenderingMatchesAcrossTypes(t *testing.T) {
	asInt := testInput()
	asInt.Patient.Age = 34

	asFloat := testInput()
	asFloat.Patient.Age = float64(34)

	asString := testInput()
	asString.Patient.Age = "34"

	a, err := Build(asInt)
	require.NoError(t, err)
	b, err := Build(asFloat)
	require.NoError(t, err)
	c, err := Build(asString)
	require.NoError(t, err)
	assert.Equal(t, a.PatientIdentityHash, b.PatientIdentityHash)
	assert.Equal(t, a.PatientIdentityHash, c.PatientIdentityHash)
}

func TestBuildRejectsMalformedInput(t *testing.T) {
	in := testInput()
	in.Patient.Name = "   "
	_, err := Build(in)
	assert.Error(t, err)

	in = testInput()
	in.Medicines = nil
	_, err = Build(in)
	assert.Error(t, err)

	in = testInput()
	in.Medicines[1].Name = ""
	_, err = Build(in)
	assert.Error(t, err)
}

func TestCoerceQuantity(t *testing.T) {
	cases := []struct {
		in   any
		want int
	}{
		{21, 21},
		{int64(7), 7},
		{2.9, 2},
		{"15", 15},
		{"2.7", 2},
		{" 3 ", 3},
		{"abc", 0},
		{"", 0},
		{nil, 0},
		{-4, 0},
		{"-1.5", 0},
		{true, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CoerceQuantity(tc.in), "CoerceQuantity(%v)", tc.in)
	}
}
