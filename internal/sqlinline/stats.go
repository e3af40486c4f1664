package sqlinline

// QMarketplaceStats takes the window start as $1.
const QMarketplaceStats = `--sql 79a20555-131f-4747-a4d8-fda8451d7eb8
select
  (select count(*) from users)::int,
  (select count(*) from users where plan = 'premium')::int,
  (select count(*) from users where role = 'admin')::int,
  (select coalesce(sum(contact_count), 0) from users)::int,
  (select count(*) from donations)::int,
  (select count(*) from donations where is_featured)::int,
  (select count(*) from donations where status = 'available')::int,
  (select count(*) from donations where status = 'in_progress')::int,
  (select count(*) from donations where status = 'taken')::int,
  (select count(*) from donations where created_at >= $1)::int;
`
