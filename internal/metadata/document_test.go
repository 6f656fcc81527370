package metadata_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credentia/internal/metadata"
)

const diplomaJSON = `{
  "name": "Grado en Ingenieria Informatica",
  "description": "Titulo oficial",
  "image": "ipfs://QmImage",
  "external_url": "https://uni.example/d/1",
  "attributes": [
    {"trait_type": "Institution", "value": "Universidad de Prueba"},
    {"trait_type": "Student name", "value": "Ada Lovelace"},
    {"trait_type": "Start date", "value": "2019-09-01"},
    {"trait_type": "End date", "value": 2023},
    {"trait_type": "Student name", "value": "Someone Else"},
    {"trait_type": "student name", "value": "lowercase"}
  ]
}`

func decode(t *testing.T, raw string) *metadata.Document {
	t.Helper()
	var doc metadata.Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return &doc
}

func TestExtractAttributes(t *testing.T) {
	doc := decode(t, diplomaJSON)

	attrs := metadata.ExtractAttributes(doc)

	require.NotNil(t, attrs.Institution)
	assert.Equal(t, "Universidad de Prueba", *attrs.Institution)
	require.NotNil(t, attrs.StudentName)
	assert.Equal(t, "Ada Lovelace", *attrs.StudentName, "first occurrence wins")
	require.NotNil(t, attrs.StartDate)
	assert.Equal(t, "2019-09-01", *attrs.StartDate)
	require.NotNil(t, attrs.EndDate)
	assert.Equal(t, "2023", *attrs.EndDate, "non-string values keep their JSON text")
	assert.Nil(t, attrs.Programme, "absent trait is omitted, not an error")
}

func TestExtractAttributesIsIdempotent(t *testing.T) {
	doc := decode(t, diplomaJSON)

	first := metadata.ExtractAttributes(doc)
	second := metadata.ExtractAttributes(doc)

	assert.Equal(t, first, second)
	assert.Len(t, doc.Attributes, 6)
}

func TestExtractAttributesEmpty(t *testing.T) {
	assert.Equal(t, metadata.Attributes{}, metadata.ExtractAttributes(nil))
	assert.Equal(t, metadata.Attributes{}, metadata.ExtractAttributes(decode(t, `{"name":"x"}`)))
}

func TestAttributesOmitAbsentFields(t *testing.T) {
	name := "Ada"
	out, err := json.Marshal(metadata.Attributes{StudentName: &name})
	require.NoError(t, err)
	assert.JSONEq(t, `{"studentName":"Ada"}`, string(out))
}
