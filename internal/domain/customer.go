// Package domain holds the shop records the assistant reads and creates.
package domain

import "time"

const CustomerStatusActive = "ativo"

// Customer mirrors a row of clientes. JSON names match what clients of the
// assistant endpoint already consume.
type Customer struct {
	ID         int64     `json:"id"`
	Name       string    `json:"nome"`
	TaxID      string    `json:"cpfCnpj"`
	PersonType string    `json:"tipoPessoa"`
	Phone      string    `json:"telefone"`
	Email      string    `json:"email,omitempty"`
	Address    string    `json:"endereco,omitempty"`
	Notes      string    `json:"observacoes,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"dataCadastro"`
}
