package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/jsonfilter/internal/metadata"
)

// SampleCatalogYAML is the metadata catalog shared by compiler, emitter and
// quick-search tests. It covers every general type, entity-reference hops
// with all id kinds, audit properties and a broken reference list binding.
const SampleCatalogYAML = `
entities:
  Person:
    display_name: FullName
    properties:
      FirstName: {type: text}
      LastName: {type: text}
      FullName: {type: text, mapped: false}
      Age: {type: numeric, numeric: int32}
      ExternalNumber: {type: numeric, numeric: int64}
      Score: {type: numeric, numeric: float}
      Rating: {type: numeric, numeric: double}
      Salary: {type: numeric, numeric: decimal}
      IsLocked: {type: boolean}
      BirthDate: {type: date}
      PreferredContactTime: {type: time}
      CreationTime: {type: datetime}
      Status: {type: category, list: Crm.PersonStatus}
      Permissions: {type: bitflags, list: Crm.Permissions}
      Region: {type: category, list: Crm.Missing}
      Tags: {type: bitflags, list: Crm.MissingFlags}
      Unlisted: {type: category}
      AreaLevel1: {type: entity, entity: Area, id: guid}
      Organisation: {type: entity, entity: Organisation, id: int64}
      Manager: {type: entity, entity: Person, id: guid}
      Passport: {type: entity, entity: Document, id: string}
      CreatorUser: {type: entity, entity: User, id: int64}
      LastModifierUser: {type: entity, entity: User, id: int64}
      InactivationUser: {type: entity, entity: User, id: int64}
  Area:
    display_name: Name
    properties:
      Name: {type: text}
      Code: {type: text}
      Population: {type: numeric, numeric: int64}
  Organisation:
    display_name: Name
    properties:
      Name: {type: text}
      Rank: {type: numeric, numeric: int32}
      PrimaryArea: {type: entity, entity: Area, id: guid}
  Document:
    properties:
      Number: {type: text}
  User:
    display_name: UserName
    properties:
      UserName: {type: text}
reference_lists:
  - namespace: Crm
    name: PersonStatus
    items:
      - {code: 1, order: 1, text: Active}
      - {code: 2, order: 2, text: Inactive}
      - {code: 3, order: 3, text: Archived}
  - namespace: Crm
    name: Permissions
    items:
      - {code: 1, order: 1, text: Read}
      - {code: 2, order: 2, text: Write}
      - {code: 4, order: 3, text: Delete}
      - {code: 8, order: 4, text: Administer}
`

// Catalog returns the compiled sample catalog.
func Catalog(t testing.TB) *metadata.Catalog {
	t.Helper()

	catalog, err := metadata.ParseCatalogYAML([]byte(SampleCatalogYAML))
	require.NoError(t, err)
	return catalog
}
