// Package sqlite открывает SQLite базы, за которыми наблюдает periodicd.
//
// По умолчанию база открывается только на чтение с одним соединением: проба
// выполняет короткий запрос каждый интервал и не должна конкурировать с
// владельцем базы за блокировку записи.
//
//	db, err := sqlite.NewDB(ctx, "data/app.db")
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	v, err := sqlite.Version(ctx, db)
package sqlite
