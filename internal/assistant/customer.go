package assistant

import "fmt"

// CustomerRecord is a complete customer ready to be persisted. Optional
// fields are nil when the user never provided them.
type CustomerRecord struct {
	Name    string
	TaxID   string
	Phone   string
	Email   *string
	Address *string
	Notes   *string
}

// Fields renders the record as the commit payload.
func (r CustomerRecord) Fields() map[string]string {
	fields := map[string]string{
		FieldName:   r.Name,
		FieldTaxID:  r.TaxID,
		FieldPhone:  r.Phone,
		FieldStatus: "ativo",
	}
	if r.Email != nil {
		fields[FieldEmail] = *r.Email
	}
	if r.Address != nil {
		fields[FieldAddress] = *r.Address
	}
	if r.Notes != nil {
		fields[FieldNotes] = *r.Notes
	}
	return fields
}

var (
	customerRequired = []string{FieldName, FieldTaxID, FieldPhone}
	customerOptional = []string{FieldEmail, FieldAddress, FieldNotes}
)

// customerDraft is the typed view of collected_fields for the customer flow.
type customerDraft struct {
	name    string
	taxID   string
	phone   string
	email   *string
	address *string
	notes   *string
}

func decodeCustomerDraft(fields map[string]string) (customerDraft, error) {
	var d customerDraft
	for key, value := range fields {
		v := value
		switch key {
		case FieldName:
			d.name = v
		case FieldTaxID:
			d.taxID = v
		case FieldPhone:
			d.phone = v
		case FieldEmail:
			d.email = &v
		case FieldAddress:
			d.address = &v
		case FieldNotes:
			d.notes = &v
		default:
			return customerDraft{}, fmt.Errorf("unexpected field %q", key)
		}
	}
	return d, nil
}

func (d customerDraft) fields() map[string]string {
	fields := make(map[string]string, 6)
	set := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	set(FieldName, d.name)
	set(FieldTaxID, d.taxID)
	set(FieldPhone, d.phone)
	if d.email != nil {
		fields[FieldEmail] = *d.email
	}
	if d.address != nil {
		fields[FieldAddress] = *d.address
	}
	if d.notes != nil {
		fields[FieldNotes] = *d.notes
	}
	return fields
}

// record succeeds only when every required field is present.
func (d customerDraft) record() (CustomerRecord, bool) {
	if d.name == "" || d.taxID == "" || d.phone == "" {
		return CustomerRecord{}, false
	}
	return CustomerRecord{
		Name:    d.name,
		TaxID:   d.taxID,
		Phone:   d.phone,
		Email:   d.email,
		Address: d.address,
		Notes:   d.notes,
	}, true
}
