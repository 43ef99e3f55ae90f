package schema

import (
	"fmt"
	"strings"

	"github.com/casmap/casmap/mapping"
)

// CreateTable renders a CREATE TABLE statement for the spec.
func CreateTable(spec *TableSpec, ifNotExists bool) (string, error) {
	if len(spec.Columns) == 0 {
		return "", fmt.Errorf("table %s has no columns", spec.Name)
	}
	if len(spec.PartitionKeys) == 0 {
		return "", fmt.Errorf("table %s has no partition key", spec.Name)
	}

	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if ifNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(spec.QualifiedName())
	sb.WriteString(" (")

	for _, col := range spec.Columns {
		sb.WriteString(mapping.QuoteIdentifier(col.Name))
		sb.WriteString(" ")
		sb.WriteString(col.Type.String())
		if col.Static {
			sb.WriteString(" STATIC")
		}
		sb.WriteString(", ")
	}

	sb.WriteString("PRIMARY KEY (")
	sb.WriteString(primaryKeyClause(spec.PartitionKeys, spec.ClusteringKeys))
	sb.WriteString("))")

	options := spec.Options
	if order := clusteringOrderOption(spec.ClusteringKeys); order != "" {
		options = append([]TableOption{{Name: "CLUSTERING ORDER BY", Value: order}}, options...)
	}
	if len(options) > 0 {
		sb.WriteString(" WITH ")
		parts := make([]string, len(options))
		for i, opt := range options {
			if strings.EqualFold(opt.Name, "CLUSTERING ORDER BY") {
				parts[i] = opt.Name + " " + opt.Value
			} else {
				parts[i] = opt.Name + " = " + opt.Value
			}
		}
		sb.WriteString(strings.Join(parts, " AND "))
	}

	return sb.String(), nil
}

// clustering order is an option only when some key is descending
func clusteringOrderOption(keys []mapping.ClusteringKey) string {
	descending := false
	for _, k := range keys {
		if k.Descending {
			descending = true
			break
		}
	}
	if !descending {
		return ""
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		dir := "ASC"
		if k.Descending {
			dir = "DESC"
		}
		parts[i] = mapping.QuoteIdentifier(k.Name) + " " + dir
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func primaryKeyClause(partitionKeys []string, clusteringKeys []mapping.ClusteringKey) string {
	quotedPK := make([]string, len(partitionKeys))
	for i, k := range partitionKeys {
		quotedPK[i] = mapping.QuoteIdentifier(k)
	}

	pk := quotedPK[0]
	if len(quotedPK) > 1 {
		pk = "(" + strings.Join(quotedPK, ", ") + ")"
	}

	parts := []string{pk}
	for _, k := range clusteringKeys {
		parts = append(parts, mapping.QuoteIdentifier(k.Name))
	}
	return strings.Join(parts, ", ")
}

// DropTable renders a DROP TABLE statement.
func DropTable(keyspace, name string, ifExists bool) string {
	return dropStatement("TABLE", keyspace, name, ifExists)
}

// AddColumn renders an ALTER TABLE ... ADD statement.
func AddColumn(keyspace, table string, col ColumnSpec) string {
	return fmt.Sprintf("ALTER TABLE %s ADD %s %s",
		qualify(keyspace, table), mapping.QuoteIdentifier(col.Name), col.Type.String())
}

// AlterColumn renders an ALTER TABLE ... ALTER ... TYPE statement.
func AlterColumn(keyspace, table string, col ColumnSpec) string {
	return fmt.Sprintf("ALTER TABLE %s ALTER %s TYPE %s",
		qualify(keyspace, table), mapping.QuoteIdentifier(col.Name), col.Type.String())
}

// DropColumn renders an ALTER TABLE ... DROP statement.
func DropColumn(keyspace, table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP %s",
		qualify(keyspace, table), mapping.QuoteIdentifier(column))
}

// CreateType renders a CREATE TYPE statement for the spec.
func CreateType(spec *TypeSpec, ifNotExists bool) (string, error) {
	if len(spec.Fields) == 0 {
		return "", fmt.Errorf("type %s has no fields", spec.Name)
	}

	var sb strings.Builder
	sb.WriteString("CREATE TYPE ")
	if ifNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(spec.QualifiedName())
	sb.WriteString(" (")

	parts := make([]string, len(spec.Fields))
	for i, f := range spec.Fields {
		parts[i] = mapping.QuoteIdentifier(f.Name) + " " + f.Type.String()
	}
	sb.WriteString(strings.Join(parts, ", "))
	sb.WriteString(")")

	return sb.String(), nil
}

// AddTypeField renders an ALTER TYPE ... ADD statement.
func AddTypeField(keyspace, name string, field FieldSpec) string {
	return fmt.Sprintf("ALTER TYPE %s ADD %s %s",
		qualify(keyspace, name), mapping.QuoteIdentifier(field.Name), field.Type.String())
}

// RenameTypeField renders an ALTER TYPE ... RENAME statement.
func RenameTypeField(keyspace, name, from, to string) string {
	return fmt.Sprintf("ALTER TYPE %s RENAME %s TO %s",
		qualify(keyspace, name), mapping.QuoteIdentifier(from), mapping.QuoteIdentifier(to))
}

// DropType renders a DROP TYPE statement.
func DropType(keyspace, name string, ifExists bool) string {
	return dropStatement("TYPE", keyspace, name, ifExists)
}

// CreateIndex renders a CREATE INDEX statement for the spec.
func CreateIndex(spec *IndexSpec, ifNotExists bool) (string, error) {
	if spec.Table == "" || spec.Column == "" {
		return "", fmt.Errorf("index %s needs a table and a column", spec.Name)
	}

	var sb strings.Builder
	sb.WriteString("CREATE ")
	if spec.Using != "" {
		sb.WriteString("CUSTOM ")
	}
	sb.WriteString("INDEX ")
	if ifNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	if spec.Name != "" {
		sb.WriteString(mapping.QuoteIdentifier(spec.Name))
		sb.WriteString(" ")
	}
	sb.WriteString("ON ")
	sb.WriteString(qualify(spec.Keyspace, spec.Table))

	column := mapping.QuoteIdentifier(spec.Column)
	if spec.Keys {
		column = "KEYS(" + column + ")"
	}
	sb.WriteString(" (" + column + ")")

	if spec.Using != "" {
		sb.WriteString(" USING '" + spec.Using + "'")
	}

	return sb.String(), nil
}

// DropIndex renders a DROP INDEX statement.
func DropIndex(keyspace, name string, ifExists bool) string {
	return dropStatement("INDEX", keyspace, name, ifExists)
}

func dropStatement(kind, keyspace, name string, ifExists bool) string {
	var sb strings.Builder
	sb.WriteString("DROP ")
	sb.WriteString(kind)
	sb.WriteString(" ")
	if ifExists {
		sb.WriteString("IF EXISTS ")
	}
	sb.WriteString(qualify(keyspace, name))
	return sb.String()
}
