package models

// LinkageKey addresses a PersonIdentity. It is assigned by the store on first
// save and never changes afterwards.
type LinkageKey string

func (k LinkageKey) String() string { return string(k) }

// IsZero reports whether the key has not been assigned yet.
func (k LinkageKey) IsZero() bool { return k == "" }

// Field names accepted in a request's data mapping.
const (
	FieldAadhaarNumber = "aadhaar_number"
	FieldPanNumber     = "pan_number"
	FieldVoterID       = "voter_id"
	FieldDLNumber      = "dl_number"
	FieldForename      = "forename"
	FieldSecondname    = "secondname"
	FieldLastname      = "lastname"
	FieldDOB           = "dob"
	FieldAddress       = "address"
	FieldGender        = "gender"
)

// PersonIdentity is the persisted identity record. Every sensitive attribute
// is held as a digest; a nil slot means the attribute was never supplied.
// Gender is the only plaintext attribute.
type PersonIdentity struct {
	LinkageKey          LinkageKey `json:"aadhaar_linkage_key"`
	HashedAadhaarNumber *string    `json:"hashed_aadhaar_number,omitempty"`
	HashedPanNumber     *string    `json:"hashed_pan_number,omitempty"`
	HashedVoterID       *string    `json:"hashed_voter_id,omitempty"`
	HashedDLNumber      *string    `json:"hashed_dl_number,omitempty"`
	HashedForename      *string    `json:"hashed_forename,omitempty"`
	HashedSecondname    *string    `json:"hashed_secondname,omitempty"`
	HashedLastname      *string    `json:"hashed_lastname,omitempty"`
	HashedDOB           *string    `json:"hashed_dob,omitempty"`
	HashedAddress       *string    `json:"hashed_address,omitempty"`
	Gender              *string    `json:"gender,omitempty"`
}

// HashedSlots maps each sensitive request field to the record slot holding
// its digest. Gender is deliberately absent.
func (p *PersonIdentity) HashedSlots() map[string]**string {
	return map[string]**string{
		FieldAadhaarNumber: &p.HashedAadhaarNumber,
		FieldPanNumber:     &p.HashedPanNumber,
		FieldVoterID:       &p.HashedVoterID,
		FieldDLNumber:      &p.HashedDLNumber,
		FieldForename:      &p.HashedForename,
		FieldSecondname:    &p.HashedSecondname,
		FieldLastname:      &p.HashedLastname,
		FieldDOB:           &p.HashedDOB,
		FieldAddress:       &p.HashedAddress,
	}
}

// CompositeKey returns the record's four match digests.
func (p *PersonIdentity) CompositeKey() CompositeKey {
	return CompositeKey{
		HashedAadhaarNumber: p.HashedAadhaarNumber,
		HashedDOB:           p.HashedDOB,
		HashedForename:      p.HashedForename,
		HashedLastname:      p.HashedLastname,
	}
}

// Clone returns a deep copy so stores never share slot pointers with callers.
func (p *PersonIdentity) Clone() *PersonIdentity {
	if p == nil {
		return nil
	}
	return &PersonIdentity{
		LinkageKey:          p.LinkageKey,
		HashedAadhaarNumber: cloneString(p.HashedAadhaarNumber),
		HashedPanNumber:     cloneString(p.HashedPanNumber),
		HashedVoterID:       cloneString(p.HashedVoterID),
		HashedDLNumber:      cloneString(p.HashedDLNumber),
		HashedForename:      cloneString(p.HashedForename),
		HashedSecondname:    cloneString(p.HashedSecondname),
		HashedLastname:      cloneString(p.HashedLastname),
		HashedDOB:           cloneString(p.HashedDOB),
		HashedAddress:       cloneString(p.HashedAddress),
		Gender:              cloneString(p.Gender),
	}
}

// CompositeKey is the exact-match search tuple. A nil member only matches a
// record whose slot is also absent.
type CompositeKey struct {
	HashedAadhaarNumber *string
	HashedDOB           *string
	HashedForename      *string
	HashedLastname      *string
}

// Matches reports tuple equality over all four members.
func (c CompositeKey) Matches(other CompositeKey) bool {
	return equalDigest(c.HashedAadhaarNumber, other.HashedAadhaarNumber) &&
		equalDigest(c.HashedDOB, other.HashedDOB) &&
		equalDigest(c.HashedForename, other.HashedForename) &&
		equalDigest(c.HashedLastname, other.HashedLastname)
}

// Members returns the tuple in its canonical order: aadhaar, dob, forename,
// lastname.
func (c CompositeKey) Members() [4]*string {
	return [4]*string{c.HashedAadhaarNumber, c.HashedDOB, c.HashedForename, c.HashedLastname}
}

func equalDigest(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
