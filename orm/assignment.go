package orm

import "github.com/coderi421/recordkit/orm/model"

// Assignment INSERT 和 UPDATE 里面的一个 `Column`=? 赋值
type Assignment struct {
	column string
	val    Expression
}

// Assign 值为 nil 的时候渲染成 NULL，传入 Expression 的时候原样输出
func Assign(field string, val any) Assignment {
	v, ok := val.(Expression)
	if !ok {
		v = value{val: val}
	}
	return Assignment{
		column: field,
		val:    v,
	}
}

// AssignField 把字段的存储值变成赋值语句，
// 时间戳字段上的 CURRENT_TIMESTAMP 交给数据库求值
func AssignField(f *model.Field, raw any) Assignment {
	if raw == model.CurrentTimestamp && f.Type == model.KindTimestamp {
		return Assign(f.Name, Raw(model.CurrentTimestamp))
	}
	return Assign(f.Name, raw)
}
