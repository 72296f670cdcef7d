package receitaws

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Company is the subset of a receitaws record used to compose documents.
type Company struct {
	Status           string    `json:"status"`
	Message          string    `json:"message,omitempty"`
	CNPJ             string    `json:"cnpj"`
	Nome             string    `json:"nome"`
	Fantasia         string    `json:"fantasia"`
	Abertura         string    `json:"abertura"`
	Situacao         string    `json:"situacao"`
	Tipo             string    `json:"tipo"`
	Porte            string    `json:"porte"`
	NaturezaJuridica string    `json:"natureza_juridica"`
	CapitalSocial    string    `json:"capital_social"`
	Logradouro       string    `json:"logradouro"`
	Numero           string    `json:"numero"`
	Complemento      string    `json:"complemento"`
	Bairro           string    `json:"bairro"`
	Municipio        string    `json:"municipio"`
	UF               string    `json:"uf"`
	CEP              string    `json:"cep"`
	Telefone         string    `json:"telefone"`
	Email            string    `json:"email"`
	QSA              []Partner `json:"qsa"`
}

// Partner is one entry of the partners and administrators roster.
type Partner struct {
	Nome string `json:"nome"`
	Qual string `json:"qual"`
}

// Decode parses a raw receitaws payload. A payload whose status is ERROR
// decodes successfully but yields a *RemoteError.
func Decode(raw []byte) (*Company, error) {
	var c Company
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode receitaws payload: %w", err)
	}
	if strings.EqualFold(c.Status, "ERROR") {
		msg := c.Message
		if msg == "" {
			msg = "Erro desconhecido"
		}
		return &c, &RemoteError{Message: msg}
	}
	return &c, nil
}
