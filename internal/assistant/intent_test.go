package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_Default(t *testing.T) {
	c := NewClassifier(nil)

	testCases := []struct {
		utterance string
		expected  Intent
	}{
		{"novo cliente", IntentCustomer},
		{"preciso cadastrar cliente hoje", IntentCustomer},
		{"new customer", IntentCustomer},
		{"abrir os para o joão", IntentWorkOrder},
		{"nova ordem de serviço", IntentWorkOrder},
		{"cadastrar produto", IntentProduct},
		{"novo cliente e novo produto", IntentCustomer},
		{"nova os e novo produto", IntentWorkOrder},
		{"quantos clientes temos?", IntentNone},
		{"", IntentNone},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.utterance, func(t *testing.T) {
			assert.Equal(t, tc.expected, c.Classify(tc.utterance))
		})
	}
}

func TestClassifier_ConfiguredRules(t *testing.T) {
	c := NewClassifier([]IntentRule{
		{Intent: IntentProduct, Phrases: []string{"  Nova Peça "}},
		{Intent: IntentCustomer, Phrases: []string{"Nova Pessoa", ""}},
		{Intent: "invoice", Phrases: []string{"nova nota"}},
		{Intent: IntentWorkOrder, Phrases: []string{" "}},
	})

	assert.Equal(t, IntentProduct, c.Classify("nova peça de tela"))
	assert.Equal(t, IntentCustomer, c.Classify("nova pessoa e nova peça"))
	assert.Equal(t, IntentNone, c.Classify("nova nota"))
	assert.Equal(t, IntentNone, c.Classify("novo cliente"))
}

func TestClassifier_Nil(t *testing.T) {
	var c *Classifier
	assert.Equal(t, IntentNone, c.Classify("novo cliente"))
}

func TestIsCancel(t *testing.T) {
	for _, u := range []string{"cancelar", "Cancela", " PARAR ", "sair\n"} {
		assert.True(t, IsCancel(u), u)
	}
	for _, u := range []string{"cancelar cadastro", "sai", "", "não quero sair"} {
		assert.False(t, IsCancel(u), u)
	}
}
